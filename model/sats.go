package model

import (
	"fmt"
	"strings"
)

const satsPerBitcoin = 100_000_000

// Sats formats a satoshi amount with the bitcoin part separated by an apostrophe and
// thousands groups by commas, e.g. 1,000'00,000,000.
type Sats uint64

func (s Sats) String() string {
	btc := uint64(s) / satsPerBitcoin
	rem := uint64(s) % satsPerBitcoin
	msats := rem / 1_000_000
	rem %= 1_000_000
	ksats := rem / 1_000
	sats := rem % 1_000

	var sb strings.Builder

	started := false

	if btc > 0 {
		groups := make([]uint64, 0, 4)
		for b := btc; b > 0; b /= 1_000 {
			groups = append(groups, b%1_000)
		}

		fmt.Fprintf(&sb, "%d", groups[len(groups)-1])

		for i := len(groups) - 2; i >= 0; i-- {
			fmt.Fprintf(&sb, ",%03d", groups[i])
		}

		sb.WriteByte('\'')

		started = true
	}

	switch {
	case started:
		fmt.Fprintf(&sb, "%02d,", msats)
	case msats > 0:
		fmt.Fprintf(&sb, "%d,", msats)

		started = true
	}

	switch {
	case started:
		fmt.Fprintf(&sb, "%03d,", ksats)
	case ksats > 0:
		fmt.Fprintf(&sb, "%d,", ksats)

		started = true
	}

	if started {
		fmt.Fprintf(&sb, "%03d", sats)
	} else {
		fmt.Fprintf(&sb, "%d", sats)
	}

	return sb.String()
}
