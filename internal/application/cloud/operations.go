// Package cloud simulates the metered cloud-service operations. No resources
// are provisioned; each operation only passes through the gateway and reports
// a confirmation.
package cloud

import "net/http"

// Operation is one simulated cloud-service call
type Operation struct {
	Name    string // e.g. "create-bucket"
	Method  string
	Message string
}

// Path is the gateway endpoint path of the operation
func (o Operation) Path() string {
	return PathPrefix + "/" + o.Name
}

// PathPrefix groups every cloud-service endpoint
const PathPrefix = "/cloud-services"

// Operations lists every simulated cloud-service call
var Operations = []Operation{
	{Name: "create-bucket", Method: http.MethodPost, Message: "Bucket created successfully"},
	{Name: "get-bucket", Method: http.MethodGet, Message: "Bucket details fetched successfully"},
	{Name: "delete-bucket", Method: http.MethodDelete, Message: "Bucket deleted successfully"},
	{Name: "create-vm", Method: http.MethodPost, Message: "Virtual machine created successfully"},
	{Name: "get-vm", Method: http.MethodGet, Message: "Details of virtual machine fetched successfully"},
	{Name: "delete-vm", Method: http.MethodDelete, Message: "Virtual machine deleted successfully"},
	{Name: "create-logs", Method: http.MethodPost, Message: "Log file created successfully"},
	{Name: "get-logs", Method: http.MethodGet, Message: "Details of log file fetched successfully"},
	{Name: "delete-logs", Method: http.MethodDelete, Message: "Log file deleted successfully"},
}
