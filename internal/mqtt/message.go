package mqtt

// SourceEngine marks messages published by this service. Inbound
// handlers drop them to avoid consuming our own output.
const SourceEngine = "ENGINE"

type Message struct {
	Data   interface{} `json:"data"`
	Source string      `json:"source"`
}

type Envelope struct {
	Source string `json:"source"`
}
