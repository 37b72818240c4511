package machineid

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/denisbrodbeck/machineid"

	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// hardwareMachineID derives a stable controller identifier from the host
// machine ID. The raw ID is hashed so it never leaves the device in logs.
type hardwareMachineID struct{}

func NewHardwareMachineID() outbound.MachineIDService {
	return &hardwareMachineID{}
}

func (h *hardwareMachineID) GetMachineID() (string, error) {
	rawID, err := machineid.ID()
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256([]byte(rawID))
	return hex.EncodeToString(hash[:8]), nil
}
