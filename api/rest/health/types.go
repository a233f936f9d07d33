package health

// Response represents the health check response
type Response struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Devices int    `json:"devices"`
}

type PingResponse struct {
	Message string `json:"message"`
}

// reports how many devices are held in memory
type DeviceCounter interface {
	Count() int
}
