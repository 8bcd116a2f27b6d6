package viewer

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/export"
	"github.com/bsv-blockchain/txflow/graph"
	"github.com/bsv-blockchain/txflow/simulation"
	"github.com/labstack/echo/v4"
)

type annotationRequest struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type positionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GetGraph returns the most recently published view.
func (s *Server) GetGraph(c echo.Context) error {
	return c.JSON(http.StatusOK, newGraphResponse(s.session.Latest()))
}

// SetRoot discards the graph and starts over from the transaction in the txid parameter.
func (s *Server) SetRoot(c echo.Context) error {
	return s.txAction(c, func(g *graph.Graph, txID chainhash.Hash) graph.NodeID {
		return g.Reset(txID)
	})
}

// AddTransaction shows the transaction in the txid parameter as a pinned node.
func (s *Server) AddTransaction(c echo.Context) error {
	return s.txAction(c, func(g *graph.Graph, txID chainhash.Hash) graph.NodeID {
		return g.AddTransaction(txID)
	})
}

func (s *Server) txAction(c echo.Context, fn func(*graph.Graph, chainhash.Hash) graph.NodeID) error {
	txID, err := chainhash.NewHashFromStr(c.Param("txid"))
	if err != nil {
		return sendError(c, errors.NewInvalidArgumentError("invalid txid %q", c.Param("txid"), err))
	}

	var id graph.NodeID

	err = s.session.Do(c.Request().Context(), func(d *simulation.Driver) error {
		id = fn(d.Graph(), *txID)
		return nil
	})
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(http.StatusOK, idResponse{ID: uint32(id)})
}

func (s *Server) Expand(c echo.Context) error {
	return s.sideAction(c, (*graph.Graph).Expand)
}

func (s *Server) Collapse(c echo.Context) error {
	return s.sideAction(c, (*graph.Graph).Collapse)
}

func (s *Server) Retry(c echo.Context) error {
	return s.nodeAction(c, (*graph.Graph).Retry)
}

func (s *Server) Unpin(c echo.Context) error {
	return s.nodeAction(c, (*graph.Graph).Unpin)
}

func (s *Server) Annotate(c echo.Context) error {
	var req annotationRequest
	if err := c.Bind(&req); err != nil {
		return sendError(c, errors.NewInvalidArgumentError("invalid annotation", err))
	}

	return s.nodeAction(c, func(g *graph.Graph, id graph.NodeID) error {
		return g.Annotate(id, graph.Annotation{Label: req.Label, Color: req.Color})
	})
}

// AnnotatePort labels the input or output named by the side and index parameters.
func (s *Server) AnnotatePort(c echo.Context) error {
	var req annotationRequest
	if err := c.Bind(&req); err != nil {
		return sendError(c, errors.NewInvalidArgumentError("invalid annotation", err))
	}

	index, err := strconv.ParseUint(c.Param("index"), 10, 32)
	if err != nil {
		return sendError(c, errors.NewInvalidArgumentError("invalid port index %q", c.Param("index"), err))
	}

	return s.sideAction(c, func(g *graph.Graph, id graph.NodeID, side graph.Side) error {
		return g.AnnotatePort(id, side, uint32(index), graph.Annotation{Label: req.Label, Color: req.Color})
	})
}

func (s *Server) MoveNode(c echo.Context) error {
	var req positionRequest
	if err := c.Bind(&req); err != nil {
		return sendError(c, errors.NewInvalidArgumentError("invalid position", err))
	}

	return s.nodeAction(c, func(g *graph.Graph, id graph.NodeID) error {
		return g.MoveNode(id, req.X, req.Y)
	})
}

// Reflow restarts the layout from the current positions.
func (s *Server) Reflow(c echo.Context) error {
	ctx := c.Request().Context()

	if err := s.session.Do(ctx, func(d *simulation.Driver) error { return d.Reflow(ctx) }); err != nil {
		return sendError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) sideAction(c echo.Context, fn func(*graph.Graph, graph.NodeID, graph.Side) error) error {
	side, err := graph.ParseSide(c.Param("side"))
	if err != nil {
		return sendError(c, err)
	}

	return s.nodeAction(c, func(g *graph.Graph, id graph.NodeID) error {
		return fn(g, id, side)
	})
}

func (s *Server) nodeAction(c echo.Context, fn func(*graph.Graph, graph.NodeID) error) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return sendError(c, errors.NewInvalidArgumentError("invalid node id %q", c.Param("id"), err))
	}

	err = s.session.Do(c.Request().Context(), func(d *simulation.Driver) error {
		return fn(d.Graph(), graph.NodeID(id))
	})
	if err != nil {
		return sendError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetLedger writes the loaded transactions of the latest view as a plain-text ledger.
func (s *Server) GetLedger(c echo.Context) error {
	var buf bytes.Buffer

	if err := export.WriteLedger(&buf, export.Ledger(s.session.Latest().Snapshot)); err != nil {
		return sendError(c, err)
	}

	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
}

// GetWorkspace saves the current graph. The format query parameter picks json or yaml.
func (s *Server) GetWorkspace(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return sendError(c, err)
	}

	var w *export.Workspace

	err = s.session.Do(c.Request().Context(), func(d *simulation.Driver) error {
		var err error

		w, err = export.NewWorkspace(c.QueryParam("name"), d.Graph().Snapshot(), d.Engine().Params(), d.Graph().Scale())

		return err
	})
	if err != nil {
		return sendError(c, err)
	}

	var buf bytes.Buffer
	if err = w.Encode(&buf, format); err != nil {
		return sendError(c, err)
	}

	return c.Blob(http.StatusOK, contentType(format), buf.Bytes())
}

// PutWorkspace replaces the graph with the workspace in the request body.
func (s *Server) PutWorkspace(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return sendError(c, err)
	}

	w, err := export.Decode(c.Request().Body, format)
	if err != nil {
		return sendError(c, err)
	}

	var id graph.NodeID

	err = s.session.Do(c.Request().Context(), func(d *simulation.Driver) error {
		if err := d.Engine().SetParams(w.LayoutParams(d.Engine().Params())); err != nil {
			return err
		}

		id, err = w.Apply(d.Graph())

		return err
	})
	if err != nil {
		return sendError(c, err)
	}

	s.logger.Infof("[Viewer] loaded workspace %q (%s) with %d transactions", w.Name, w.ID, len(w.Transactions))

	return c.JSON(http.StatusOK, idResponse{ID: uint32(id)})
}

func contentType(format export.Format) string {
	if format == export.FormatYAML {
		return "application/yaml"
	}

	return echo.MIMEApplicationJSONCharsetUTF8
}
