package misc

import "os"

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func GetServiceName() string {
	name := os.Getenv("SERVICE_NAME")
	if name == "" {
		return "flowcase"
	}
	return name
}

func GetServiceInstance() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
