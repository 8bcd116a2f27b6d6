package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/graph"
	"github.com/bsv-blockchain/txflow/layout"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// WorkspaceVersion is the only file format version understood.
const WorkspaceVersion uint32 = 0

const missingVersion = math.MaxUint32

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.NewInvalidArgumentError("unknown workspace format %q", s)
	}
}

type Color [3]uint8

type Annotations struct {
	TxColor   map[string]Color  `json:"tx_color" yaml:"tx_color"`
	TxLabel   map[string]string `json:"tx_label" yaml:"tx_label"`
	CoinColor map[string]Color  `json:"coin_color" yaml:"coin_color"`
	CoinLabel map[string]string `json:"coin_label" yaml:"coin_label"`
}

// Layout holds the force scale and the two points the node size curve is fitted through.
type Layout struct {
	Scale uint64 `json:"scale" yaml:"scale"`
	X1    uint64 `json:"x1" yaml:"x1"`
	Y1    uint64 `json:"y1" yaml:"y1"`
	X2    uint64 `json:"x2" yaml:"x2"`
	Y2    uint64 `json:"y2" yaml:"y2"`
}

// Transform is the viewport zoom and translation. It is carried through unchanged.
type Transform struct {
	Z  float32 `json:"z" yaml:"z"`
	TX float32 `json:"t_x" yaml:"t_x"`
	TY float32 `json:"t_y" yaml:"t_y"`
}

type Position struct {
	X int32 `json:"x" yaml:"x"`
	Y int32 `json:"y" yaml:"y"`
}

type Transaction struct {
	TxID     string   `json:"txid" yaml:"txid"`
	Position Position `json:"position" yaml:"position"`
	Expanded []string `json:"expanded,omitempty" yaml:"expanded,omitempty"`
}

// Workspace is a saved exploration: the visible transactions with their positions, the
// annotations and the layout settings.
type Workspace struct {
	Version      uint32        `json:"version" yaml:"version"`
	ID           string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	Root         string        `json:"root,omitempty" yaml:"root,omitempty"`
	Annotations  Annotations   `json:"annotations" yaml:"annotations"`
	Layout       Layout        `json:"layout" yaml:"layout"`
	Transform    Transform     `json:"transform" yaml:"transform"`
	Transactions []Transaction `json:"transactions" yaml:"transactions"`
}

func DefaultLayout() Layout {
	s := model.DefaultSizeScale()

	return Layout{
		Scale: uint64(layout.DefaultParams().Scale),
		X1:    uint64(s.X1),
		Y1:    uint64(s.Y1),
		X2:    uint64(s.X2),
		Y2:    uint64(s.Y2),
	}
}

func DefaultTransform() Transform {
	return Transform{Z: 1}
}

func newAnnotations() Annotations {
	return Annotations{
		TxColor:   map[string]Color{},
		TxLabel:   map[string]string{},
		CoinColor: map[string]Color{},
		CoinLabel: map[string]string{},
	}
}

// NewWorkspace captures the loaded transactions of snap. Spend placeholders are not saved.
func NewWorkspace(name string, snap *graph.Snapshot, params layout.Params, scale model.SizeScale) (*Workspace, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.NewProcessingError("[NewWorkspace] failed to generate id", err)
	}

	if name == "" {
		name = "Unnamed"
	}

	w := &Workspace{
		Version:     WorkspaceVersion,
		ID:          id.String(),
		Name:        name,
		Annotations: newAnnotations(),
		Layout: Layout{
			Scale: uint64(math.Round(params.Scale)),
			X1:    uint64(scale.X1),
			Y1:    uint64(math.Round(scale.Y1)),
			X2:    uint64(scale.X2),
			Y2:    uint64(math.Round(scale.Y2)),
		},
		Transform: DefaultTransform(),
	}

	if root, ok := snap.Node(snap.Root); ok {
		w.Root = root.TxID.String()
	}

	for _, n := range snap.Nodes {
		if n.SpendOf != nil {
			continue
		}

		txid := n.TxID.String()
		t := Transaction{
			TxID: txid,
			Position: Position{
				X: int32(math.Round(n.Rect.X)),
				Y: int32(math.Round(n.Rect.Y)),
			},
		}

		for side, expanded := range n.Expanded {
			if expanded {
				t.Expanded = append(t.Expanded, graph.Side(side).String())
			}
		}

		w.Transactions = append(w.Transactions, t)

		w.Annotations.setTx(txid, n.Annotation)

		for i, p := range n.Outputs {
			w.Annotations.setCoin(fmt.Sprintf("%s:%d", txid, i), p.Annotation, true)
		}

		if n.Tx == nil {
			continue
		}

		// an input label names the coin it spends, unless the funding output has its own
		for i, p := range n.Inputs {
			if i < len(n.Tx.Inputs) && p.Counterpart != nil {
				w.Annotations.setCoin(fmt.Sprintf("%s:%d", p.Counterpart, n.Tx.Inputs[i].Vout), p.Annotation, false)
			}
		}
	}

	return w, nil
}

func (a *Annotations) setTx(txid string, an graph.Annotation) {
	if an.Label != "" {
		a.TxLabel[txid] = an.Label
	}

	if c, ok := parseColor(an.Color); ok {
		a.TxColor[txid] = c
	}
}

func (a *Annotations) setCoin(key string, an graph.Annotation, overwrite bool) {
	if _, found := a.CoinLabel[key]; an.Label != "" && (overwrite || !found) {
		a.CoinLabel[key] = an.Label
	}

	if _, found := a.CoinColor[key]; overwrite || !found {
		if c, ok := parseColor(an.Color); ok {
			a.CoinColor[key] = c
		}
	}
}

func parseColor(s string) (Color, bool) {
	var c Color
	if len(s) != 7 || s[0] != '#' {
		return c, false
	}

	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return c, false
	}

	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Decode reads a workspace and validates it. A missing layout or transform takes the default.
func Decode(r io.Reader, format Format) (*Workspace, error) {
	w := &Workspace{
		Version:   missingVersion,
		Layout:    DefaultLayout(),
		Transform: DefaultTransform(),
	}

	var err error

	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(w)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(w)
	default:
		return nil, errors.NewInvalidArgumentError("unknown workspace format %q", format)
	}

	if err != nil {
		return nil, errors.NewInvalidArgumentError("[Decode] failed to parse %s workspace", format, err)
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Workspace) Encode(wr io.Writer, format Format) error {
	var err error

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(wr)
		enc.SetIndent("", "  ")
		err = enc.Encode(w)
	case FormatYAML:
		enc := yaml.NewEncoder(wr)
		enc.SetIndent(2)

		if err = enc.Encode(w); err == nil {
			err = enc.Close()
		}
	default:
		return errors.NewInvalidArgumentError("unknown workspace format %q", format)
	}

	if err != nil {
		return errors.NewProcessingError("[Encode] failed to write %s workspace", format, err)
	}

	return nil
}

// Validate checks the version and that every txid and coin key parses.
func (w *Workspace) Validate() error {
	switch w.Version {
	case WorkspaceVersion:
	case missingVersion:
		return errors.NewWorkspaceVersionError("workspace has no version")
	default:
		return errors.NewWorkspaceVersionError("unsupported version: %d", w.Version)
	}

	if w.Root != "" {
		if _, err := chainhash.NewHashFromStr(w.Root); err != nil {
			return errors.NewInvalidArgumentError("invalid root txid %q", w.Root, err)
		}
	}

	for _, t := range w.Transactions {
		if _, err := chainhash.NewHashFromStr(t.TxID); err != nil {
			return errors.NewInvalidArgumentError("invalid txid %q", t.TxID, err)
		}

		for _, s := range t.Expanded {
			if _, err := graph.ParseSide(s); err != nil {
				return err
			}
		}
	}

	for _, m := range []map[string]string{w.Annotations.TxLabel, colorKeys(w.Annotations.TxColor)} {
		for k := range m {
			if _, err := chainhash.NewHashFromStr(k); err != nil {
				return errors.NewInvalidArgumentError("invalid annotated txid %q", k, err)
			}
		}
	}

	for _, m := range []map[string]string{w.Annotations.CoinLabel, colorKeys(w.Annotations.CoinColor)} {
		for k := range m {
			if _, err := ParseCoin(k); err != nil {
				return err
			}
		}
	}

	return nil
}

func colorKeys(m map[string]Color) map[string]string {
	keys := make(map[string]string, len(m))
	for k := range m {
		keys[k] = ""
	}

	return keys
}

// ParseCoin parses a "txid:vout" coin key.
func ParseCoin(s string) (model.Outpoint, error) {
	txid, vout, ok := strings.Cut(s, ":")
	if !ok {
		return model.Outpoint{}, errors.NewInvalidArgumentError("invalid coin %q, expected txid:vout", s)
	}

	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return model.Outpoint{}, errors.NewInvalidArgumentError("invalid coin txid %q", s, err)
	}

	n, err := strconv.ParseUint(vout, 10, 32)
	if err != nil {
		return model.Outpoint{}, errors.NewInvalidArgumentError("invalid coin vout %q", s, err)
	}

	return model.Outpoint{TxID: *hash, Vout: uint32(n)}, nil
}

// SizeScale is the node size curve, the default when the file left it unset.
func (w *Workspace) SizeScale() model.SizeScale {
	l := w.Layout
	if l.X1 == 0 && l.Y1 == 0 && l.X2 == 0 && l.Y2 == 0 {
		return model.DefaultSizeScale()
	}

	return model.SizeScale{X1: float64(l.X1), Y1: float64(l.Y1), X2: float64(l.X2), Y2: float64(l.Y2)}
}

// LayoutParams returns base with the saved force scale applied.
func (w *Workspace) LayoutParams(base layout.Params) layout.Params {
	if w.Layout.Scale > 0 {
		base.Scale = float64(w.Layout.Scale)
	}

	return base
}

// Hints returns the state to restore per transaction: position, annotations and expanded sides.
func (w *Workspace) Hints() map[chainhash.Hash]graph.Hint {
	hints := make(map[chainhash.Hash]graph.Hint)

	get := func(txid chainhash.Hash) graph.Hint {
		return hints[txid]
	}

	for _, t := range w.Transactions {
		txid, err := chainhash.NewHashFromStr(t.TxID)
		if err != nil {
			continue
		}

		h := get(*txid)
		h.Position = &layout.Vec2{X: float64(t.Position.X), Y: float64(t.Position.Y)}

		for _, s := range t.Expanded {
			if side, err := graph.ParseSide(s); err == nil {
				h.Expanded[side] = true
			}
		}

		hints[*txid] = h
	}

	for k, label := range w.Annotations.TxLabel {
		if txid, err := chainhash.NewHashFromStr(k); err == nil {
			h := get(*txid)
			h.Annotation.Label = label
			hints[*txid] = h
		}
	}

	for k, c := range w.Annotations.TxColor {
		if txid, err := chainhash.NewHashFromStr(k); err == nil {
			h := get(*txid)
			h.Annotation.Color = c.String()
			hints[*txid] = h
		}
	}

	coin := func(k string, set func(*graph.Annotation)) {
		op, err := ParseCoin(k)
		if err != nil {
			return
		}

		h := get(op.TxID)
		if h.OutputAnnotations == nil {
			h.OutputAnnotations = make(map[uint32]graph.Annotation)
		}

		a := h.OutputAnnotations[op.Vout]
		set(&a)
		h.OutputAnnotations[op.Vout] = a
		hints[op.TxID] = h
	}

	for k, label := range w.Annotations.CoinLabel {
		coin(k, func(a *graph.Annotation) { a.Label = label })
	}

	for k, c := range w.Annotations.CoinColor {
		coin(k, func(a *graph.Annotation) { a.Color = c.String() })
	}

	return hints
}

// Apply replaces the contents of g with the workspace. The root is reset, every other saved
// transaction is added pinned, and each takes its saved state when it loads.
func (w *Workspace) Apply(g *graph.Graph) (graph.NodeID, error) {
	if err := w.Validate(); err != nil {
		return graph.NoNode, err
	}

	rootID := w.Root
	if rootID == "" {
		if len(w.Transactions) == 0 {
			return graph.NoNode, errors.NewInvalidArgumentError("workspace %q has no transactions", w.Name)
		}

		rootID = w.Transactions[0].TxID
	}

	root, _ := chainhash.NewHashFromStr(rootID)

	g.SetScale(w.SizeScale())
	id := g.Reset(*root)

	for txid, h := range w.Hints() {
		g.SetHint(txid, h)
	}

	for _, t := range w.Transactions {
		txid, _ := chainhash.NewHashFromStr(t.TxID)
		if !txid.IsEqual(root) {
			g.AddTransaction(*txid)
		}
	}

	return id, nil
}
