// Package entities provides the core domain types shared by the guest module
// and the host runtime.
// These types serve dual purpose: domain entities AND JSON wire format DTOs.
package entities
