package listener

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codado/codado/docker"
)

// DefaultLookupCacheTTL is how long inspected resources are reused by default
const DefaultLookupCacheTTL = time.Second

// check checks if the builder is usable; aggregate error strings on a slice
func (b *Builder) check() (errs []string) {
	if b.Interval <= 0 {
		errs = append(errs, fmt.Sprintf("Interval must be positive, got %v", b.Interval))
	}

	if b.LookupCacheTTL < 0 {
		errs = append(errs, fmt.Sprintf("Lookup cache TTL cannot be negative, got %v", b.LookupCacheTTL))
	}

	if b.DieLimit < 0 {
		errs = append(errs, fmt.Sprintf("Die limit cannot be negative, got %d", b.DieLimit))
	}

	for _, f := range b.Filters {
		if _, err := docker.ParseFilters([]string{f}); err != nil {
			errs = append(errs, fmt.Sprintf("Filter %q must be in the key=value form", f))
		}
	}

	return
}

// Validate reports every problem of the configuration at once
func (b *Builder) Validate() error {
	errs := b.check()
	if _, err := NewPrinter(io.Discard, b.Format); err != nil {
		errs = append(errs, err.Error())
	}
	if errs != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
