// ABOUTME: HTTP receiver for the export automation plus monitoring endpoint.
// ABOUTME: POST /health-data ingests batches; GET /cgm-status reports health.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/nmrastogi/patient-mcp/internal/analysis"
	"github.com/nmrastogi/patient-mcp/internal/archive"
	"github.com/nmrastogi/patient-mcp/internal/ingest"
	"github.com/nmrastogi/patient-mcp/internal/storage"
)

// Header names the export automation sends alongside the batch body.
const (
	HeaderSessionID      = "session-id"
	HeaderAutomationType = "automation-type"
)

// maxBodyBytes caps one batch upload at 16 MiB.
const maxBodyBytes = 16 << 20

// API wires the ingestion pipeline and monitoring reads to HTTP routes.
type API struct {
	pipeline  *ingest.Pipeline
	store     *storage.DB
	cache     *analysis.Cache
	archive   *archive.Archive
	patientID string
	logger    *log.Logger
}

// New creates the API. The archive may be nil, which disables raw-batch
// archiving but not ingestion.
func New(store *storage.DB, arc *archive.Archive, patientID string, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	return &API{
		pipeline:  ingest.NewPipeline(store, logger),
		store:     store,
		cache:     analysis.NewCache(store),
		archive:   arc,
		patientID: patientID,
		logger:    logger,
	}
}

// Router builds the gin engine with the two routes.
func (a *API) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/health-data", a.receiveHealthData)
	r.GET("/cgm-status", a.cgmStatus)
	return r
}

// Serve runs the HTTP listener until the server fails.
func (a *API) Serve(addr string) error {
	a.logger.Info("starting CGM receiver", "addr", addr)
	return a.Router().Run(addr)
}

func (a *API) receiveHealthData(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "failed to read request body"})
		return
	}

	meta := ingest.Meta{
		PatientID:      a.patientID,
		SessionID:      c.GetHeader(HeaderSessionID),
		AutomationType: c.GetHeader(HeaderAutomationType),
	}

	if a.archive != nil {
		if _, err := a.archive.Put(meta.SessionID, body); err != nil {
			// Archiving is best-effort; the batch still gets processed.
			a.logger.Warn("failed to archive batch", "err", err)
		}
	}

	result, err := a.pipeline.Process(body, meta)
	if err != nil {
		status := http.StatusInternalServerError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			status = http.StatusBadRequest
		}
		c.JSON(status, result)
		return
	}

	a.cache.Invalidate()
	c.JSON(http.StatusOK, result)
}

func (a *API) cgmStatus(c *gin.Context) {
	report, err := analysis.CGMStatus(a.store, a.patientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
