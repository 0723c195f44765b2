//go:build !consul

package catalog

import "log"

// NewConsulSource fails when the consul build tag is not enabled.
func NewConsulSource(addr, prefix string) (Source, error) {
	log.Printf("consul catalog requested (addr=%s prefix=%s) but consul build tag not enabled", addr, prefix)
	return nil, ErrConsulDisabled
}
