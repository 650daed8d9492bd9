//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(_ string) (Store, error) {
	return nil, fmt.Errorf("sqlite store unavailable in this build; rebuild unbiasedmcctl with -tags sqlite")
}
