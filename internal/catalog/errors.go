package catalog

import "errors"

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrServiceNotFound  = errors.New("service not found in customer plan")
)
