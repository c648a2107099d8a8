package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"offer-harvester/models"
	"offer-harvester/utils"
)

const (
	filePrefix     = "offers_harvested_"
	stampLayout    = "20060102_150405"
	maxNameSuffix  = 1000
	sidecarExt     = ".json"
	dirPermissions = 0o755
)

// WriteResult names the files a run was written to. SidecarPath is empty
// when no record came from a source with rich fields.
type WriteResult struct {
	TablePath   string
	SidecarPath string
}

// FileWriter writes each run to a fresh, timestamped table file in dir.
type FileWriter struct {
	dir     string
	encoder TableEncoder
	now     func() time.Time
	logger  *utils.Logger
}

// EncoderFor maps an OUTPUT_FORMAT value to its encoder.
func EncoderFor(format string) (TableEncoder, error) {
	switch strings.ToLower(format) {
	case "", "csv":
		return CSVEncoder{}, nil
	case "xlsx", "excel":
		return XLSXEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// NewFileWriter creates a FileWriter for the given format ("csv" or "xlsx").
func NewFileWriter(dir, format string, logger *utils.Logger) (*FileWriter, error) {
	enc, err := EncoderFor(format)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = utils.Discard()
	}
	return &FileWriter{dir: dir, encoder: enc, now: time.Now, logger: logger}, nil
}

// Write stores every record of run in the table file and the rich-source
// records in a JSON sidecar next to it. Existing files are never
// overwritten: when the timestamped name is taken a _1, _2, ... suffix is
// added, the same one for table and sidecar. All failures are
// *models.PersistenceError.
func (w *FileWriter) Write(run *models.HarvestRun) (WriteResult, error) {
	if err := os.MkdirAll(w.dir, dirPermissions); err != nil {
		return WriteResult{}, &models.PersistenceError{Target: w.dir, Err: err}
	}

	records := run.Records()
	rich := richRecords(records)

	table, sidecar, res, err := w.reserve(w.now().Format(stampLayout), len(rich) > 0)
	if err != nil {
		return WriteResult{}, err
	}

	encodeErr := w.encoder.Encode(table, records)
	if closeErr := table.Close(); encodeErr == nil {
		encodeErr = closeErr
	}
	if encodeErr != nil {
		w.discard(res, sidecar)
		return WriteResult{}, &models.PersistenceError{Target: res.TablePath, Err: encodeErr}
	}

	if sidecar != nil {
		if err := writeSidecar(sidecar, run, rich); err != nil {
			_ = os.Remove(res.SidecarPath)
			w.logger.Warn("[storage] Sidecar not written: %v", err)
			res.SidecarPath = ""
		}
	}

	w.logger.Info("[storage] Wrote %d records to %s", len(records), res.TablePath)
	return res, nil
}

// reserve creates the table file, and the sidecar when wanted, with
// O_EXCL so concurrent or same-second runs cannot clobber each other.
func (w *FileWriter) reserve(stamp string, withSidecar bool) (*os.File, *os.File, WriteResult, error) {
	for n := 0; n < maxNameSuffix; n++ {
		base := filePrefix + stamp
		if n > 0 {
			base = fmt.Sprintf("%s_%d", base, n)
		}
		res := WriteResult{TablePath: filepath.Join(w.dir, base+w.encoder.Ext())}

		table, err := createExclusive(res.TablePath)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, nil, WriteResult{}, &models.PersistenceError{Target: res.TablePath, Err: err}
		}
		if !withSidecar {
			return table, nil, res, nil
		}

		res.SidecarPath = filepath.Join(w.dir, base+sidecarExt)
		sidecar, err := createExclusive(res.SidecarPath)
		if err != nil {
			table.Close()
			_ = os.Remove(res.TablePath)
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return nil, nil, WriteResult{}, &models.PersistenceError{Target: res.SidecarPath, Err: err}
		}
		return table, sidecar, res, nil
	}
	return nil, nil, WriteResult{}, &models.PersistenceError{
		Target: w.dir,
		Err:    fmt.Errorf("no free file name for %s%s after %d attempts", filePrefix, stamp, maxNameSuffix),
	}
}

func (w *FileWriter) discard(res WriteResult, sidecar *os.File) {
	_ = os.Remove(res.TablePath)
	if sidecar != nil {
		sidecar.Close()
		_ = os.Remove(res.SidecarPath)
	}
}

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

// richRecords keeps the records of sources that carry rank, momentum and
// change.
func richRecords(records []models.OfferRecord) []models.OfferRecord {
	var out []models.OfferRecord
	for _, r := range records {
		if r.Source == models.SourceClickBank || r.Source == models.SourceCBEngine {
			out = append(out, r)
		}
	}
	return out
}

type sidecarDoc struct {
	RunID     string               `json:"run_id"`
	StartedAt time.Time            `json:"started_at"`
	Records   []models.OfferRecord `json:"records"`
}

func writeSidecar(f *os.File, run *models.HarvestRun, records []models.OfferRecord) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	err := enc.Encode(sidecarDoc{RunID: run.ID, StartedAt: run.StartedAt, Records: records})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Latest returns the newest table file in dir, newest by modification time
// with the file name breaking ties. It returns an error wrapping
// fs.ErrNotExist when dir holds no output yet.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read data dir: %w", err)
	}

	type candidate struct {
		name string
		mod  time.Time
	}
	var found []candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !isTableFile(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{name: name, mod: info.ModTime()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no %s* files in %s: %w", filePrefix, dir, fs.ErrNotExist)
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].mod.Equal(found[j].mod) {
			return found[i].mod.After(found[j].mod)
		}
		return found[i].name > found[j].name
	})
	return filepath.Join(dir, found[0].name), nil
}

func isTableFile(name string) bool {
	if !strings.HasPrefix(name, filePrefix) {
		return false
	}
	ext := filepath.Ext(name)
	return ext == CSVEncoder{}.Ext() || ext == XLSXEncoder{}.Ext()
}
