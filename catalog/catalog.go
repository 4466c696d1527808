// Package catalog provides the single piece of schema discovery the core
// storage engine depends on: turning a TableID into the DbFile backing it.
// Anything beyond that lookup (multi-table joins across a SQL front end,
// ALTER TABLE, secondary indexes) is outside this package's scope.
package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
	"github.com/puzpuzpuz/xsync/v3"
)

// TableInfo is the persisted schema metadata for one table: enough to
// reopen its backing heap file on startup and recompute its TableID.
type TableInfo struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	FieldTypes []common.Type `json:"field_types"`
	FieldNames []string      `json:"field_names"`
}

// PersistenceProvider abstracts how catalog metadata is saved to and loaded
// from disk, so tests can swap in an in-memory provider.
type PersistenceProvider interface {
	LoadCatalogState() (string, error)
	SaveCatalogState(json string) error
}

// Catalog is an explicit, non-singleton table registry: TableID to DbFile.
// Unlike a static Database/Catalog global, a Catalog is constructed once
// per engine instance and threaded explicitly to whatever needs it
// (BufferPool, executors), which keeps multiple engine instances (as used
// by tests) from sharing state by accident.
type Catalog struct {
	tables   *xsync.MapOf[common.TableID, storage.DbFile]
	infoByID map[common.TableID]TableInfo
	byName   *xsync.MapOf[string, common.TableID]
}

// NewCatalog constructs an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables:   xsync.NewMapOf[common.TableID, storage.DbFile](),
		infoByID: make(map[common.TableID]TableInfo),
		byName:   xsync.NewMapOf[string, common.TableID](),
	}
}

// TableIDForPath derives the stable TableID for a table's backing file from
// the absolute path of that file.
func TableIDForPath(absPath string) common.TableID {
	return common.TableID(common.Hash([]byte(absPath)))
}

// RegisterTable adds name -> file to the catalog, keyed by file.TableID().
// It returns IllegalArgumentError if a table is already registered under
// that name or id. The id and name checks are each applied atomically via
// LoadOrStore, not a separate exists-check followed by a write.
func (c *Catalog) RegisterTable(name string, file storage.DbFile) error {
	id := file.TableID()
	if _, loaded := c.tables.LoadOrStore(id, file); loaded {
		return common.NewError(common.IllegalArgumentError, "table id %d already registered", id)
	}
	if _, loaded := c.byName.LoadOrStore(name, id); loaded {
		c.tables.Delete(id)
		return common.NewError(common.IllegalArgumentError, "table %q already registered", name)
	}
	return nil
}

// GetDatabaseFile implements storage.Catalog: it returns the DbFile backing
// tableID, or DbError if no table is registered under that id.
func (c *Catalog) GetDatabaseFile(tableID common.TableID) (storage.DbFile, error) {
	f, ok := c.tables.Load(tableID)
	if !ok {
		return nil, common.NewError(common.DbError, "no table registered with id %d", tableID)
	}
	return f, nil
}

// GetTableID looks up a previously registered table by name.
func (c *Catalog) GetTableID(name string) (common.TableID, error) {
	id, ok := c.byName.Load(name)
	if !ok {
		return 0, common.NewError(common.NoSuchElementError, "no table named %q", name)
	}
	return id, nil
}

// Load reads persisted table metadata from provider and opens each table's
// heap file, registering it with the catalog. bp is the buffer pool each
// reopened HeapFile will route page fetches through.
func (c *Catalog) Load(provider PersistenceProvider, bp *storage.BufferPool) error {
	jsonData, err := provider.LoadCatalogState()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return common.WrapError(common.IoError, err, "loading catalog state")
	}

	var infos []TableInfo
	if err := json.Unmarshal([]byte(jsonData), &infos); err != nil {
		return common.WrapError(common.DbError, err, "parsing catalog state")
	}

	for _, info := range infos {
		desc := storage.NewTupleDesc(info.FieldTypes, info.FieldNames)
		id := TableIDForPath(info.Path)
		hf, err := storage.OpenHeapFile(info.Path, id, desc, bp)
		if err != nil {
			return err
		}
		if err := c.RegisterTable(info.Name, hf); err != nil {
			return err
		}
		c.infoByID[id] = info
	}
	return nil
}

// CreateTable opens a new heap file at path with the given schema, registers
// it under name, and persists the updated metadata via provider.
func (c *Catalog) CreateTable(name, path string, desc *storage.TupleDesc, fieldNames []string, bp *storage.BufferPool, provider PersistenceProvider) (common.TableID, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, common.WrapError(common.IoError, err, "resolving table path")
	}
	id := TableIDForPath(absPath)

	hf, err := storage.OpenHeapFile(absPath, id, desc, bp)
	if err != nil {
		return 0, err
	}
	if err := c.RegisterTable(name, hf); err != nil {
		return 0, err
	}

	fieldTypes := make([]common.Type, desc.NumFields())
	for i := range fieldTypes {
		fieldTypes[i] = desc.FieldType(i)
	}
	info := TableInfo{Name: name, Path: absPath, FieldTypes: fieldTypes, FieldNames: fieldNames}
	c.infoByID[id] = info

	return id, c.persist(provider)
}

func (c *Catalog) persist(provider PersistenceProvider) error {
	infos := make([]TableInfo, 0, len(c.infoByID))
	for _, info := range c.infoByID {
		infos = append(infos, info)
	}
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return common.WrapError(common.DbError, err, "marshaling catalog state")
	}
	return provider.SaveCatalogState(string(data))
}

const CatalogFileName = "catalog.json"

// DiskCatalogManager persists catalog metadata as a single JSON file under
// a root directory, atomically replacing it on every save.
type DiskCatalogManager struct {
	rootPath string
}

// NewDiskCatalogManager constructs a DiskCatalogManager rooted at rootPath.
func NewDiskCatalogManager(rootPath string) *DiskCatalogManager {
	return &DiskCatalogManager{rootPath: rootPath}
}

// RootPath returns the directory this manager persists catalog state under.
func (dcm *DiskCatalogManager) RootPath() string { return dcm.rootPath }

func (dcm *DiskCatalogManager) LoadCatalogState() (string, error) {
	path := filepath.Join(dcm.rootPath, CatalogFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (dcm *DiskCatalogManager) SaveCatalogState(jsonData string) error {
	tmpPath := filepath.Join(dcm.rootPath, CatalogFileName+".tmp")
	finalPath := filepath.Join(dcm.rootPath, CatalogFileName)

	if err := os.WriteFile(tmpPath, []byte(jsonData), 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, finalPath)
}
