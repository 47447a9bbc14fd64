package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

// EntityManager implémente ports.EntityManager sur une table unique:
// une ligne par entité, propriétés sérialisées en JSON.
type EntityManager struct {
	db       *sql.DB
	registry ports.DefinitionRegistry
	bus      ports.EventBus
	logger   zerolog.Logger

	// LockTTL borne la durée d'un verrou posé par LoadAndLock.
	LockTTL time.Duration
	Now     func() time.Time
}

func NewEntityManager(db *sql.DB, registry ports.DefinitionRegistry, bus ports.EventBus, logger zerolog.Logger) *EntityManager {
	return &EntityManager{
		db:       db,
		registry: registry,
		bus:      bus,
		logger:   logger,
		LockTTL:  5 * time.Minute,
		Now:      time.Now,
	}
}

var _ ports.EntityManager = (*EntityManager)(nil)

// queryer est satisfait par *sql.DB et *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const entityColumns = `oid, def_name, version, properties, created_at, updated_at`

type entityRow struct {
	oid     string
	def     string
	version int64
	props   []byte
	created string
	updated string
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (entityRow, error) {
	var r entityRow
	err := s.Scan(&r.oid, &r.def, &r.version, &r.props, &r.created, &r.updated)
	return r, err
}

func (m *EntityManager) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}

func (m *EntityManager) getRow(ctx context.Context, q queryer, oid, defName string) (entityRow, error) {
	r, err := scanRow(q.QueryRowContext(ctx, `
		SELECT `+entityColumns+`
		FROM entities
		WHERE oid = ? AND def_name = ? AND deleted = 0
	`, oid, defName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entityRow{}, fmt.Errorf("%s %s: %w", defName, oid, ports.ErrNotFound)
		}
		return entityRow{}, fmt.Errorf("failed to query entity: %w", err)
	}
	return r, nil
}

// queryRows lit toutes les lignes avant de rendre la main: avec une seule
// connexion, aucune autre requête ne peut partir tant que rows est ouvert.
func queryRows(ctx context.Context, q queryer, query string, args ...any) ([]entityRow, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	out := []entityRow{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// toEntity décode toutes les propriétés stockées; les références sont des talons.
func toEntity(def *domain.Definition, r entityRow) (*domain.Entity, error) {
	e := domain.NewEntity(r.def)
	e.OID = r.oid
	e.Version = r.version
	if t, err := parseTime(r.created); err == nil {
		e.CreatedAt = t
	}
	if t, err := parseTime(r.updated); err == nil {
		e.UpdatedAt = t
	}
	props, err := unmarshalProps(r.props)
	if err != nil {
		return nil, err
	}
	for _, p := range def.Properties {
		raw, ok := props[p.Name]
		if !ok || !p.Stored() {
			continue
		}
		v, err := decodeValue(p, raw)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", def.Name, r.oid, err)
		}
		if v != nil {
			e.SetValue(p.Name, v)
		}
	}
	return e, nil
}

func (m *EntityManager) loadPlain(ctx context.Context, q queryer, oid, defName string) (*domain.Entity, error) {
	def, err := m.registry.Lookup(defName)
	if err != nil {
		return nil, err
	}
	r, err := m.getRow(ctx, q, oid, defName)
	if err != nil {
		return nil, err
	}
	return toEntity(def, r)
}

func (m *EntityManager) Load(ctx context.Context, oid, definition string, opt domain.LoadOption) (*domain.Entity, error) {
	def, err := m.registry.Lookup(definition)
	if err != nil {
		return nil, err
	}
	r, err := m.getRow(ctx, m.db, oid, definition)
	if err != nil {
		return nil, err
	}
	e, err := toEntity(def, r)
	if err != nil {
		return nil, err
	}
	if opt.ResolveReferences {
		if err := m.resolve(ctx, def, e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// resolve remplace les talons par les entités référencées (sans leurs propres
// références) et calcule les références inverses (mappedBy).
// Une référence vers une entité disparue reste un talon.
func (m *EntityManager) resolve(ctx context.Context, def *domain.Definition, e *domain.Entity) error {
	for _, p := range def.Properties {
		if p.Type != domain.TypeReference {
			continue
		}
		if !p.Stored() {
			children, err := m.findByRef(ctx, p.ReferenceTo, p.MappedBy, e.OID)
			if err != nil {
				return err
			}
			e.SetValue(p.Name, children)
			continue
		}
		stubs := e.References(p.Name)
		if len(stubs) == 0 {
			continue
		}
		loaded := make([]*domain.Entity, 0, len(stubs))
		for _, stub := range stubs {
			target, err := m.loadPlain(ctx, m.db, stub.OID, p.ReferenceTo)
			if errors.Is(err, ports.ErrNotFound) {
				loaded = append(loaded, stub)
				continue
			}
			if err != nil {
				return err
			}
			loaded = append(loaded, target)
		}
		if p.Multiple {
			e.SetValue(p.Name, loaded)
		} else {
			e.SetValue(p.Name, loaded[0])
		}
	}
	return nil
}

func (m *EntityManager) findByRef(ctx context.Context, defName, refProp, oid string) ([]*domain.Entity, error) {
	def, err := m.registry.Lookup(defName)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(ctx, m.db, `
		SELECT `+entityColumns+`
		FROM entities
		WHERE def_name = ? AND deleted = 0 AND `+jsonColumn(refProp)+` = ?
		ORDER BY created_at ASC, oid ASC
	`, defName, oid)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Entity, 0, len(rows))
	for _, r := range rows {
		e, err := toEntity(def, r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *EntityManager) where(def *domain.Definition, c domain.Condition) (string, []any, error) {
	b := &whereBuilder{def: def}
	clause, err := b.build(c)
	if err != nil {
		return "", nil, err
	}
	if clause == "" {
		return "", nil, nil
	}
	return " AND " + clause, b.args, nil
}

func (m *EntityManager) searchEntities(ctx context.Context, q domain.Query, opt domain.SearchOption) (domain.SearchResult[*domain.Entity], error) {
	var res domain.SearchResult[*domain.Entity]
	def, err := m.registry.Lookup(q.From)
	if err != nil {
		return res, err
	}
	whereSQL, whereArgs, err := m.where(def, q.Where)
	if err != nil {
		return res, err
	}
	order, err := orderBy(def, q.OrderBy)
	if err != nil {
		return res, err
	}
	limit, limitArgs := limitOffset(q.Limit, q.Offset)

	args := append([]any{def.Name}, whereArgs...)
	rows, err := queryRows(ctx, m.db, `
		SELECT `+entityColumns+`
		FROM entities
		WHERE def_name = ? AND deleted = 0`+whereSQL+order+limit,
		append(args, limitArgs...)...)
	if err != nil {
		return res, err
	}

	refs := refCache{m: m}
	res.List = make([]*domain.Entity, 0, len(rows))
	for _, r := range rows {
		full, err := toEntity(def, r)
		if err != nil {
			return res, err
		}
		e, err := m.project(ctx, def, full, q, &refs)
		if err != nil {
			return res, err
		}
		res.List = append(res.List, e)
	}

	if opt.CountTotal {
		total, err := m.count(ctx, def, whereSQL, whereArgs)
		if err != nil {
			return res, err
		}
		res.TotalCount = total
	} else {
		res.TotalCount = len(res.List)
	}
	return res, nil
}

type refCache struct {
	m     *EntityManager
	byKey map[string]*domain.Entity
}

// get renvoie nil si l'entité référencée n'existe plus.
func (c *refCache) get(ctx context.Context, defName, oid string) (*domain.Entity, error) {
	if c.byKey == nil {
		c.byKey = map[string]*domain.Entity{}
	}
	key := defName + "#" + oid
	if e, ok := c.byKey[key]; ok {
		return e, nil
	}
	e, err := c.m.loadPlain(ctx, c.m.db, oid, defName)
	if errors.Is(err, ports.ErrNotFound) {
		e, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.byKey[key] = e
	return e, nil
}

// project restreint full aux chemins de q.Select. Sans Select (ou avec
// SelectAll), toutes les propriétés stockées sont renvoyées.
func (m *EntityManager) project(ctx context.Context, def *domain.Definition, full *domain.Entity, q domain.Query, refs *refCache) (*domain.Entity, error) {
	if q.SelectAll || len(q.Select) == 0 {
		return full, nil
	}
	out := domain.NewEntity(full.DefinitionName)
	out.OID = full.OID
	out.Version = full.Version
	out.CreatedAt = full.CreatedAt
	out.UpdatedAt = full.UpdatedAt

	for _, path := range q.Select {
		head, tail := domain.SplitPath(path)
		if head == domain.PropOID {
			continue
		}
		p, ok := def.Property(head)
		if !ok {
			return nil, fmt.Errorf("%w: unknown property %s.%s", ports.ErrUnsupportedQuery, def.Name, head)
		}
		if tail == "" {
			if !p.Stored() {
				children, err := m.findByRef(ctx, p.ReferenceTo, p.MappedBy, full.OID)
				if err != nil {
					return nil, err
				}
				out.SetValue(head, children)
			} else if full.Has(head) {
				out.SetValue(head, full.Value(head))
			}
			continue
		}
		if p.Type != domain.TypeReference || p.Multiple || !p.Stored() {
			return nil, fmt.Errorf("%w: path %s", ports.ErrUnsupportedQuery, path)
		}
		stub := full.Reference(head)
		if stub == nil {
			continue
		}
		nested := out.Reference(head)
		if nested == nil {
			nested = domain.Ref(p.ReferenceTo, stub.OID)
			out.SetValue(head, nested)
		}
		if tail == domain.PropOID {
			continue
		}
		targetDef, err := m.registry.Lookup(p.ReferenceTo)
		if err != nil {
			return nil, err
		}
		if _, ok := targetDef.Property(tail); !ok || strings.Contains(tail, ".") {
			return nil, fmt.Errorf("%w: path %s", ports.ErrUnsupportedQuery, path)
		}
		target, err := refs.get(ctx, p.ReferenceTo, stub.OID)
		if err != nil {
			return nil, err
		}
		if target != nil && target.Has(tail) {
			nested.SetValue(tail, target.Value(tail))
		}
	}
	return out, nil
}

func (m *EntityManager) SearchEntity(ctx context.Context, q domain.Query, opt domain.SearchOption) (domain.SearchResult[*domain.Entity], error) {
	return m.searchEntities(ctx, q, opt)
}

func (m *EntityManager) Search(ctx context.Context, q domain.Query, opt domain.SearchOption) (domain.SearchResult[[]any], error) {
	var res domain.SearchResult[[]any]
	ents, err := m.searchEntities(ctx, q, opt)
	if err != nil {
		return res, err
	}
	paths := q.Select
	if q.SelectAll || len(paths) == 0 {
		def, err := m.registry.Lookup(q.From)
		if err != nil {
			return res, err
		}
		paths = []string{domain.PropOID}
		for _, p := range def.Properties {
			if p.Stored() {
				paths = append(paths, p.Name)
			}
		}
	}
	res.TotalCount = ents.TotalCount
	res.List = make([][]any, 0, len(ents.List))
	for _, e := range ents.List {
		row := make([]any, len(paths))
		for i, path := range paths {
			row[i] = pathValue(e, path)
		}
		res.List = append(res.List, row)
	}
	return res, nil
}

func pathValue(e *domain.Entity, path string) any {
	head, tail := domain.SplitPath(path)
	if head == domain.PropOID {
		return e.OID
	}
	if tail == "" {
		return e.Value(head)
	}
	ref := e.Reference(head)
	if ref == nil {
		return nil
	}
	if tail == domain.PropOID {
		return ref.OID
	}
	return ref.Value(tail)
}

func (m *EntityManager) Count(ctx context.Context, q domain.Query) (int, error) {
	def, err := m.registry.Lookup(q.From)
	if err != nil {
		return 0, err
	}
	whereSQL, whereArgs, err := m.where(def, q.Where)
	if err != nil {
		return 0, err
	}
	return m.count(ctx, def, whereSQL, whereArgs)
}

func (m *EntityManager) count(ctx context.Context, def *domain.Definition, whereSQL string, whereArgs []any) (int, error) {
	var n int
	args := append([]any{def.Name}, whereArgs...)
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entities
		WHERE def_name = ? AND deleted = 0`+whereSQL, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return n, nil
}

func (m *EntityManager) Insert(ctx context.Context, e *domain.Entity, opt domain.InsertOption) (string, error) {
	if e == nil {
		return "", errors.New("insert: nil entity")
	}
	def, err := m.registry.Lookup(e.DefinitionName)
	if err != nil {
		return "", err
	}
	if !opt.SkipValidation {
		res, err := m.validate(ctx, def, e, nil)
		if err != nil {
			return "", err
		}
		if !res.Valid() {
			return "", &domain.ValidationError{Definition: def.Name, Result: res}
		}
	}
	props, err := encodeEntity(def, e)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to marshal properties: %w", err)
	}

	oid := e.OID
	if oid == "" {
		oid = xid.New().String()
	}
	now := m.now()
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO entities(oid, def_name, version, properties, deleted, created_at, updated_at)
		VALUES(?, ?, 1, ?, 0, ?, ?)
	`, oid, def.Name, string(b), formatTime(now), formatTime(now))
	if err != nil {
		// modernc.org/sqlite: "constraint failed: UNIQUE constraint failed: entities.oid (1555)"
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unique constraint failed") {
			return "", fmt.Errorf("%s %s: %w", def.Name, oid, ports.ErrConflict)
		}
		return "", fmt.Errorf("failed to insert entity: %w", err)
	}

	e.OID = oid
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now

	m.logger.Debug().Str("definition", def.Name).Str("oid", oid).Msg("entity inserted")
	if !opt.SkipListeners {
		m.publish(ports.TopicEntityInserted, ports.EntityEvent{OID: oid, Definition: def.Name, Version: 1})
	}
	return oid, nil
}

// Update écrit uniquement opt.Properties; une propriété absente ou nil est effacée.
func (m *EntityManager) Update(ctx context.Context, e *domain.Entity, opt domain.UpdateOption) error {
	if len(opt.Properties) == 0 {
		return nil
	}
	if e == nil || e.OID == "" {
		return errors.New("update: entity without oid")
	}
	def, err := m.registry.Lookup(e.DefinitionName)
	if err != nil {
		return err
	}
	// Validation hors transaction: elle interroge la base (références).
	if !opt.SkipValidation {
		res, err := m.validate(ctx, def, e, opt.Properties)
		if err != nil {
			return err
		}
		if !res.Valid() {
			return &domain.ValidationError{Definition: def.Name, Result: res}
		}
	}

	now := m.now()
	var version int64
	err = withTx(ctx, m.db, func(tx *sql.Tx) error {
		r, err := m.getRow(ctx, tx, e.OID, def.Name)
		if err != nil {
			return err
		}
		if err := m.checkLock(ctx, tx, e.OID, e.LockToken); err != nil {
			return err
		}
		if opt.CheckTimestamp && r.updated != formatTime(e.UpdatedAt) {
			return fmt.Errorf("%s %s modified since %s: %w", def.Name, e.OID, formatTime(e.UpdatedAt), ports.ErrConflict)
		}
		props, err := unmarshalProps(r.props)
		if err != nil {
			return err
		}
		for _, name := range opt.Properties {
			p, ok := def.Property(name)
			if !ok {
				return fmt.Errorf("%w: unknown property %s.%s", ports.ErrUnsupportedQuery, def.Name, name)
			}
			if !p.Stored() {
				continue
			}
			v, err := encodeValue(p, e.Value(name))
			if err != nil {
				return fmt.Errorf("%s.%s: %w", def.Name, name, err)
			}
			if v == nil {
				delete(props, name)
			} else {
				props[name] = v
			}
		}
		b, err := json.Marshal(props)
		if err != nil {
			return fmt.Errorf("failed to marshal properties: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE entities SET properties = ?, version = version + 1, updated_at = ?
			WHERE oid = ?
		`, string(b), formatTime(now), e.OID); err != nil {
			return fmt.Errorf("failed to update entity: %w", err)
		}
		version = r.version + 1
		return releaseLock(ctx, tx, e.OID)
	})
	if err != nil {
		return err
	}

	e.Version = version
	e.UpdatedAt = now
	e.LockToken = ""

	m.logger.Debug().Str("definition", def.Name).Str("oid", e.OID).Strs("properties", opt.Properties).Msg("entity updated")
	if !opt.SkipListeners {
		m.publish(ports.TopicEntityUpdated, ports.EntityEvent{OID: e.OID, Definition: def.Name, Version: version, Properties: opt.Properties})
	}
	return nil
}

func (m *EntityManager) Delete(ctx context.Context, e *domain.Entity, opt domain.DeleteOption) error {
	if e == nil || e.OID == "" {
		return errors.New("delete: entity without oid")
	}
	def, err := m.registry.Lookup(e.DefinitionName)
	if err != nil {
		return err
	}
	now := m.now()
	err = withTx(ctx, m.db, func(tx *sql.Tx) error {
		if _, err := m.getRow(ctx, tx, e.OID, def.Name); err != nil {
			return err
		}
		if err := m.checkLock(ctx, tx, e.OID, e.LockToken); err != nil {
			return err
		}
		if opt.Purge {
			if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE oid = ?`, e.OID); err != nil {
				return fmt.Errorf("failed to delete entity: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `
				UPDATE entities SET deleted = 1, version = version + 1, updated_at = ?
				WHERE oid = ?
			`, formatTime(now), e.OID); err != nil {
				return fmt.Errorf("failed to delete entity: %w", err)
			}
		}
		return releaseLock(ctx, tx, e.OID)
	})
	if err != nil {
		return err
	}
	e.LockToken = ""

	m.logger.Debug().Str("definition", def.Name).Str("oid", e.OID).Bool("purge", opt.Purge).Msg("entity deleted")
	if !opt.SkipListeners {
		m.publish(ports.TopicEntityDeleted, ports.EntityEvent{OID: e.OID, Definition: def.Name, Purge: opt.Purge})
	}
	return nil
}

// UpdateAll modifie toutes les entités de cond.Definition satisfaisant cond.Where,
// en une seule instruction. Ni verrous ni listeners ne sont pris en compte.
func (m *EntityManager) UpdateAll(ctx context.Context, cond domain.UpdateCondition) (int, error) {
	def, err := m.registry.Lookup(cond.Definition)
	if err != nil {
		return 0, err
	}
	if len(cond.Values) == 0 {
		return 0, nil
	}

	var invalid domain.ValidateResult
	expr := "properties"
	setArgs := []any{}
	for _, uv := range cond.Values {
		p, ok := def.Property(uv.Property)
		if !ok || !p.Stored() {
			return 0, fmt.Errorf("%w: cannot update %s.%s", ports.ErrUnsupportedQuery, def.Name, uv.Property)
		}
		v, err := encodeValue(p, uv.Value)
		if err != nil {
			invalid.Add(p.Name, "%v", err)
			continue
		}
		if v == nil {
			if p.Required {
				invalid.Add(p.Name, "required")
			}
			expr = fmt.Sprintf("json_remove(%s, '$.%s')", expr, p.Name)
			continue
		}
		if s, ok := v.(string); ok && p.Type == domain.TypeSelect {
			if _, ok := p.Option(s); !ok {
				invalid.Add(p.Name, "unknown option %q", s)
			}
		}
		b, err := json.Marshal(v)
		if err != nil {
			return 0, err
		}
		expr = fmt.Sprintf("json_set(%s, '$.%s', json(?))", expr, p.Name)
		setArgs = append(setArgs, string(b))
	}
	if !invalid.Valid() {
		return 0, &domain.ValidationError{Definition: def.Name, Result: invalid}
	}

	whereSQL, whereArgs, err := m.where(def, cond.Where)
	if err != nil {
		return 0, err
	}
	args := append(setArgs, formatTime(m.now()), def.Name)
	args = append(args, whereArgs...)
	res, err := m.db.ExecContext(ctx, `
		UPDATE entities
		SET properties = `+expr+`, version = version + 1, updated_at = ?
		WHERE def_name = ? AND deleted = 0`+whereSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update entities: %w", err)
	}
	n, _ := res.RowsAffected()
	m.logger.Debug().Str("definition", def.Name).Int64("count", n).Msg("entities updated")
	return int(n), nil
}

func (m *EntityManager) publish(topic string, evt ports.EntityEvent) {
	if m.bus == nil {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	m.bus.Publish(topic, b)
}
