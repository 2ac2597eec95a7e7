package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ulasan/internal/classifier"
	"ulasan/internal/metrics"
)

// SessionProvider entrega la sesion activa en cada llamada; los llamadores no deben cachearla.
type SessionProvider interface {
	Active() (classifier.Session, error)
}

// Reloader vuelve a resolver el checkpoint activo.
type Reloader interface {
	Reload(ctx context.Context) error
}

// CheckpointPublisher reemplaza el checkpoint en disco y recarga sin que otra carga
// observe el reemplazo a medias.
type CheckpointPublisher interface {
	Publish(ctx context.Context, swap func() error) error
	ActiveCheckpoint() (classifier.Checkpoint, time.Time, bool)
}

type loadedSession struct {
	session  classifier.Session
	loadedAt time.Time
}

// ModelManager es dueño del checkpoint activo. Las lecturas no toman locks: la sesion
// vive detras de un atomic.Pointer que solo Reload reemplaza. Una sesion retirada sigue
// siendo valida para quien ya la tenia y la libera el GC cuando nadie la referencia.
type ModelManager struct {
	loader       classifier.Loader
	base         classifier.Checkpoint
	fineTunedDir string
	logger       *zap.Logger

	active atomic.Pointer[loadedSession]
	// serializa las cargas para que cada Reload resuelva el disco posterior a su llamada.
	loadMu sync.Mutex
}

func NewModelManager(loader classifier.Loader, base classifier.Checkpoint, fineTunedDir string, logger *zap.Logger) *ModelManager {
	if base.Kind == "" {
		base.Kind = classifier.KindBase
	}
	return &ModelManager{
		loader:       loader,
		base:         base,
		fineTunedDir: fineTunedDir,
		logger:       logger,
	}
}

// FineTunedPresent decide si el checkpoint fine-tuned existe: directorio con al menos una entrada.
// Un directorio ausente no es un error, solo "no presente".
func FineTunedPresent(dir string) bool {
	if dir == "" {
		return false
	}
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// CheckpointCandidates devuelve el orden de resolucion: fine-tuned (si esta presente) y luego base.
func CheckpointCandidates(fineTunedDir string, base classifier.Checkpoint) []classifier.Checkpoint {
	if FineTunedPresent(fineTunedDir) {
		return []classifier.Checkpoint{
			{Kind: classifier.KindFineTuned, Path: fineTunedDir},
			base,
		}
	}
	return []classifier.Checkpoint{base}
}

// Initialize carga el primer checkpoint utilizable. Si ni el base carga, devuelve
// ErrModelUnavailable y el proceso no debe servir trafico.
func (m *ModelManager) Initialize(ctx context.Context) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if restored, err := RestoreRetiredCheckpoint(m.fineTunedDir); err != nil {
		m.logger.Warn("restore retired checkpoint failed", zap.Error(err))
	} else if restored != "" {
		m.logger.Warn("restored checkpoint left by an interrupted publish", zap.String("from", restored))
	}
	return m.reloadLocked(ctx)
}

// Reload construye la nueva sesion aparte y la publica de forma atomica. Si falla,
// la sesion anterior sigue activa.
func (m *ModelManager) Reload(ctx context.Context) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	return m.reloadLocked(ctx)
}

// Publish ejecuta swap y recarga con el lock de carga tomado. Si swap falla no se recarga.
func (m *ModelManager) Publish(ctx context.Context, swap func() error) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if err := swap(); err != nil {
		return err
	}
	return m.reloadLocked(ctx)
}

func (m *ModelManager) reloadLocked(ctx context.Context) error {
	session, err := m.resolve(ctx)
	if err != nil {
		return err
	}
	m.active.Store(&loadedSession{session: session, loadedAt: time.Now().UTC()})
	metrics.SetActiveCheckpoint(string(session.Checkpoint().Kind), string(classifier.KindBase), string(classifier.KindFineTuned))
	m.logger.Info("active model published", zap.String("checkpoint", session.Checkpoint().String()))
	return nil
}

func (m *ModelManager) resolve(ctx context.Context) (classifier.Session, error) {
	var lastErr error
	for _, cp := range CheckpointCandidates(m.fineTunedDir, m.base) {
		session, err := m.loader.Load(ctx, cp)
		if err == nil && session == nil {
			err = fmt.Errorf("loader returned no session for %s", cp)
		}
		if err != nil {
			metrics.ModelReloadsTotal.WithLabelValues(string(cp.Kind), "failed").Inc()
			m.logger.Warn("checkpoint load failed", zap.String("checkpoint", cp.String()), zap.Error(err))
			lastErr = err
			continue
		}
		metrics.ModelReloadsTotal.WithLabelValues(string(cp.Kind), "loaded").Inc()
		if lastErr != nil {
			m.logger.Warn("fell back to base checkpoint", zap.Error(lastErr))
		}
		return session, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, lastErr)
}

// Active devuelve la sesion actual.
func (m *ModelManager) Active() (classifier.Session, error) {
	current := m.active.Load()
	if current == nil {
		return nil, ErrModelUnavailable
	}
	return current.session, nil
}

func (m *ModelManager) IsReady() bool {
	return m.active.Load() != nil
}

// ActiveCheckpoint devuelve el checkpoint activo y cuando se cargo.
func (m *ModelManager) ActiveCheckpoint() (classifier.Checkpoint, time.Time, bool) {
	current := m.active.Load()
	if current == nil {
		return classifier.Checkpoint{}, time.Time{}, false
	}
	return current.session.Checkpoint(), current.loadedAt, true
}

// RestoreRetiredCheckpoint devuelve a su lugar el checkpoint apartado por una publicacion
// que no termino (".<dir>.old-<run>"), solo si dir no esta presente. Devuelve la ruta
// restaurada o "" si no habia nada que restaurar.
func RestoreRetiredCheckpoint(dir string) (string, error) {
	if dir == "" || FineTunedPresent(dir) {
		return "", nil
	}
	dir = filepath.Clean(dir)
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(dir), "."+filepath.Base(dir)+".old-*"))
	if err != nil || len(matches) == 0 {
		return "", err
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var found []candidate
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() || !FineTunedPresent(path) {
			continue
		}
		found = append(found, candidate{path: path, modTime: info.ModTime()})
	}
	if len(found) == 0 {
		return "", nil
	}
	// El mas reciente es el ultimo checkpoint que estuvo publicado.
	sort.Slice(found, func(i, j int) bool { return found[i].modTime.After(found[j].modTime) })

	// Un directorio vacio en dir bloquearia el rename.
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("clear %s: %w", dir, err)
	}
	if err := os.Rename(found[0].path, dir); err != nil {
		return "", fmt.Errorf("restore %s: %w", found[0].path, err)
	}
	return found[0].path, nil
}

func (m *ModelManager) FineTunedDir() string {
	return m.fineTunedDir
}
