package worker

// CSV bulk import. Each row is an independent engine operation — one bad row
// never aborts the rest of the file. The per-row outcome list is stored in
// Redis under the job id so the UI can poll for it.

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stallsync/internal/dto"
	"stallsync/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	importResultPrefix = "import:result:"
	importResultTTL    = 24 * time.Hour
)

// ImportJobPayload is the job envelope sent to QueueStockImport.
// CSV columns: name, category, quantity, unit, price, cost_price, threshold.
// An optional leading item_id column turns the row into a quantity correction
// on an existing record instead of a creation.
type ImportJobPayload struct {
	JobID     string `json:"job_id"`
	SiteID    string `json:"site_id"`
	StallID   string `json:"stall_id,omitempty"` // empty = rows create master records
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name"`
	CSV       string `json:"csv"`
}

// RowResult is the per-row outcome of an import.
type RowResult struct {
	Row    int    `json:"row"`
	ItemID string `json:"item_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ImportResult is stored under import:result:{job_id}.
type ImportResult struct {
	JobID     string      `json:"job_id"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Rows      []RowResult `json:"rows"`
}

type ImportWorker struct {
	stock  service.StockService
	ledger service.LedgerService
	rdb    *redis.Client
}

func NewImportWorker(stock service.StockService, ledgerSvc service.LedgerService, rdb *redis.Client) *ImportWorker {
	return &ImportWorker{stock: stock, ledger: ledgerSvc, rdb: rdb}
}

// Process runs one import job end to end.
func (w *ImportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ImportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("import_worker: invalid payload")
		SendToDLQ(ctx, w.rdb, QueueStockImport, "stock_import", raw, "invalid payload: "+err.Error(), 1)
		return
	}

	actorID, err := uuid.Parse(payload.ActorID)
	if err != nil {
		log.Error().Str("job_id", payload.JobID).Msg("import_worker: invalid actor id")
		SendToDLQ(ctx, w.rdb, QueueStockImport, "stock_import", raw, "invalid actor id", 1)
		return
	}
	actor := service.Actor{ID: actorID, Name: payload.ActorName}

	reader := csv.NewReader(strings.NewReader(payload.CSV))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		log.Error().Err(err).Str("job_id", payload.JobID).Msg("import_worker: unreadable CSV")
		SendToDLQ(ctx, w.rdb, QueueStockImport, "stock_import", raw, "unreadable CSV: "+err.Error(), 1)
		return
	}

	result := ImportResult{JobID: payload.JobID}
	for i, record := range records {
		if i == 0 && isHeaderRow(record) {
			continue
		}
		result.Total++
		rowResult := w.processRow(ctx, actor, payload, i+1, record)
		if rowResult.Error != "" {
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Rows = append(result.Rows, rowResult)
	}

	w.storeResult(ctx, &result)
	log.Info().
		Str("job_id", payload.JobID).
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("import_worker: job finished")
}

// processRow applies one CSV row as an independent operation.
func (w *ImportWorker) processRow(ctx context.Context, actor service.Actor, payload ImportJobPayload, rowNum int, record []string) RowResult {
	res := RowResult{Row: rowNum}

	// item_id rows are quantity corrections
	if len(record) >= 2 && looksLikeUUID(record[0]) {
		itemID, _ := uuid.Parse(record[0])
		qty, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			res.Error = fmt.Sprintf("row %d: invalid quantity %q", rowNum, record[1])
			return res
		}
		item, err := w.ledger.SetQuantity(ctx, actor, itemID, dto.SetQuantityRequest{
			Quantity: qty,
			Notes:    "CSV import " + payload.JobID,
		})
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.ItemID = item.ID
		return res
	}

	if len(record) < 5 {
		res.Error = fmt.Sprintf("row %d: expected at least 5 columns, got %d", rowNum, len(record))
		return res
	}

	qty, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		res.Error = fmt.Sprintf("row %d: invalid quantity %q", rowNum, record[2])
		return res
	}
	price, err := decimal.NewFromString(strings.TrimSpace(record[4]))
	if err != nil {
		res.Error = fmt.Sprintf("row %d: invalid price %q", rowNum, record[4])
		return res
	}

	req := dto.CreateStockItemRequest{
		Name:     strings.TrimSpace(record[0]),
		Category: strings.TrimSpace(record[1]),
		Quantity: qty,
		Unit:     strings.TrimSpace(record[3]),
		Price:    price,
		SiteID:   payload.SiteID,
	}
	if payload.StallID != "" {
		stallID := payload.StallID
		req.StallID = &stallID
	}
	if len(record) > 5 && strings.TrimSpace(record[5]) != "" {
		cost, err := decimal.NewFromString(strings.TrimSpace(record[5]))
		if err != nil {
			res.Error = fmt.Sprintf("row %d: invalid cost price %q", rowNum, record[5])
			return res
		}
		req.CostPrice = &cost
	}
	if len(record) > 6 && strings.TrimSpace(record[6]) != "" {
		threshold, err := strconv.Atoi(strings.TrimSpace(record[6]))
		if err != nil {
			res.Error = fmt.Sprintf("row %d: invalid threshold %q", rowNum, record[6])
			return res
		}
		req.LowStockThreshold = threshold
	}

	item, err := w.stock.Create(ctx, actor, req)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.ItemID = item.ID
	return res
}

func (w *ImportWorker) storeResult(ctx context.Context, result *ImportResult) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("job_id", result.JobID).Msg("import_worker: failed to marshal result")
		return
	}
	if err := w.rdb.Set(ctx, importResultPrefix+result.JobID, data, importResultTTL).Err(); err != nil {
		log.Error().Err(err).Str("job_id", result.JobID).Msg("import_worker: failed to store result")
	}
}

// FetchImportResult reads the stored outcome of a finished job; returns nil
// when the job is still running or the id is unknown.
func FetchImportResult(ctx context.Context, rdb *redis.Client, jobID string) (*ImportResult, error) {
	data, err := rdb.Get(ctx, importResultPrefix+jobID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result ImportResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func isHeaderRow(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "name")
}

func looksLikeUUID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}
