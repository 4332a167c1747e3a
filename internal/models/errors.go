package models

import "errors"

var (
	ErrCarrierNotFound  = errors.New("carrier not found")
	ErrShipmentNotFound = errors.New("shipment not found")
)
