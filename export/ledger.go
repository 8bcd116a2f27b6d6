// Package export turns the visible graph into a plain-text ledger, and saves and restores
// workspaces.
package export

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/graph"
	"github.com/shopspring/decimal"
)

const (
	Currency = "BTC"

	AccountFees     = "fees"
	AccountCoinbase = "coinbase"
)

type Posting struct {
	Account string
	// Amount is in BTC, negative for inputs.
	Amount decimal.Decimal
	Label  string
}

type LedgerEntry struct {
	TxID     chainhash.Hash
	Label    string
	Date     time.Time
	Postings []Posting
}

// Balance is the sum of the postings, zero for a well-formed transaction.
func (e LedgerEntry) Balance() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range e.Postings {
		sum = sum.Add(p.Amount)
	}

	return sum
}

func btc(sats uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(sats)).Shift(-8)
}

// Ledger returns an entry per loaded node of snap, oldest first. Inputs are debited, outputs
// and the fee credited.
func Ledger(snap *graph.Snapshot) []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(snap.Nodes))

	for _, n := range snap.Nodes {
		tx := n.Tx
		if n.Status != graph.Loaded || tx == nil {
			continue
		}

		entry := LedgerEntry{
			TxID:  n.TxID,
			Label: n.Annotation.Label,
			Date:  tx.Time(),
		}

		if tx.IsCoinbase() {
			entry.Postings = append(entry.Postings, Posting{Account: AccountCoinbase, Amount: btc(tx.OutputAmount()).Neg()})
		} else {
			for i, in := range tx.Inputs {
				account := in.Address
				if account == "" {
					account = fmt.Sprintf("%s:%d", in.PrevTxID, in.Vout)
				}

				entry.Postings = append(entry.Postings, Posting{
					Account: account,
					Amount:  btc(in.Value).Neg(),
					Label:   portLabel(n.Inputs, i),
				})
			}
		}

		for i, out := range tx.Outputs {
			account := out.Address
			if account == "" {
				account = fmt.Sprintf("%s:%d", tx.TxID, i)
			}

			entry.Postings = append(entry.Postings, Posting{
				Account: account,
				Amount:  btc(out.Value),
				Label:   portLabel(n.Outputs, i),
			})
		}

		if fee := tx.Fees(); fee > 0 {
			entry.Postings = append(entry.Postings, Posting{Account: AccountFees, Amount: btc(fee)})
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}

		return entries[i].TxID.String() < entries[j].TxID.String()
	})

	return entries
}

func portLabel(ports []graph.Port, i int) string {
	if i < len(ports) {
		return ports[i].Annotation.Label
	}

	return ""
}

// WriteLedger writes entries as a plain-text ledger, one dated block per transaction.
func WriteLedger(w io.Writer, entries []LedgerEntry) error {
	bw := bufio.NewWriter(w)

	for i, e := range entries {
		if i > 0 {
			_, _ = bw.WriteString("\n")
		}

		date := "unconfirmed"
		if !e.Date.IsZero() {
			date = e.Date.Format(time.DateOnly)
		}

		_, _ = fmt.Fprintf(bw, "%s * %q ; %s\n", date, e.Label, e.TxID)

		for _, p := range e.Postings {
			_, _ = fmt.Fprintf(bw, "  %-64s %18s %s", p.Account, p.Amount.StringFixed(8), Currency)

			if p.Label != "" {
				_, _ = fmt.Fprintf(bw, " ; %s", p.Label)
			}

			_, _ = bw.WriteString("\n")
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.NewProcessingError("[WriteLedger] failed to write ledger", err)
	}

	return nil
}
