package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studxhq/studx/internal/listing"
)

// tableSpec describes one collection's table and queryable columns.
type tableSpec struct {
	table   string
	columns []string
}

// tableSpecs maps each kind to its table. Column lists mirror the four
// independently-evolving schemas; everything selected feeds the normalizer.
var tableSpecs = map[listing.Kind]tableSpec{
	listing.KindProduct: {
		table: "products",
		columns: []string{
			"id", "title", "description", "price", "category", "condition",
			"college", "location", "images", "is_sold", "seller_id", "created_at",
		},
	},
	listing.KindNote: {
		table: "notes",
		columns: []string{
			"id", "title", "description", "price", "category", "college",
			"academic_year", "course_subject", "images", "pdf_urls",
			"seller_id", "created_at",
		},
	},
	listing.KindRoom: {
		table: "rooms",
		columns: []string{
			"id", "title", "hostel_name", "description", "price", "fees",
			"category", "college", "location", "images", "room_type",
			"occupancy", "deposit", "mess_fees", "fees_include_mess",
			"owner_name", "amenities", "seller_id", "created_at",
		},
	},
	listing.KindRental: {
		table: "rentals",
		columns: []string{
			"id", "name", "description", "rental_price", "rental_duration",
			"category", "condition", "college", "location", "images",
			"deposit", "seller_id", "created_at",
		},
	},
}

// PostgresAdapter queries one collection table over database/sql (lib/pq).
type PostgresAdapter struct {
	db   *sql.DB
	kind listing.Kind
	spec tableSpec
}

// NewPostgresAdapter creates an adapter for the given kind's table.
func NewPostgresAdapter(db *sql.DB, kind listing.Kind) (*PostgresAdapter, error) {
	spec, ok := tableSpecs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", listing.ErrUnknownKind, kind)
	}
	return &PostgresAdapter{db: db, kind: kind, spec: spec}, nil
}

// Kind reports which collection this adapter serves.
func (p *PostgresAdapter) Kind() listing.Kind {
	return p.kind
}

// Fetch returns raw records matching the filter.
func (p *PostgresAdapter) Fetch(ctx context.Context, f Filter) ([]listing.RawRecord, error) {
	query, args := p.buildQuery(f)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", p.spec.table, err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]listing.RawRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows, p.spec.columns)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", p.spec.table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", p.spec.table, err)
	}

	return records, nil
}

// Lookup returns a single record by id, or ErrNotFound.
func (p *PostgresAdapter) Lookup(ctx context.Context, id string) (listing.RawRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1",
		strings.Join(p.spec.columns, ", "), p.spec.table)

	rows, err := p.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("%s: lookup: %w", p.spec.table, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: lookup: %w", p.spec.table, err)
		}
		return nil, ErrNotFound
	}

	rec, err := scanRecord(rows, p.spec.columns)
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", p.spec.table, err)
	}
	return rec, nil
}

// buildQuery assembles the SELECT statement and its positional args from the
// filter. All values go through placeholders; only column names from the
// static spec reach the SQL text.
func (p *PostgresAdapter) buildQuery(f Filter) (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(p.spec.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(p.spec.table)

	var conds []string
	placeholder := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, field := range p.spec.columns {
		if want, ok := f.Equals[field]; ok {
			conds = append(conds, fmt.Sprintf("%s = %s", field, placeholder(want)))
		}
	}

	if f.ExcludeID != "" {
		conds = append(conds, fmt.Sprintf("id <> %s", placeholder(f.ExcludeID)))
	}

	if len(f.OrSubstring) > 0 {
		var ors []string
		for _, ft := range f.OrSubstring {
			if !p.hasColumn(ft.Field) {
				continue
			}
			ors = append(ors, fmt.Sprintf("%s ILIKE %s", ft.Field, placeholder("%"+ft.Term+"%")))
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if f.OrderByCreatedAtDesc {
		sb.WriteString(" ORDER BY created_at DESC, id ASC")
	}

	if f.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %s", placeholder(f.Limit)))
	}

	return sb.String(), args
}

// hasColumn reports whether the field is part of this table's spec. Unknown
// fields in OR predicates are skipped rather than erroring, since the filter
// is shared across heterogeneously-shaped tables.
func (p *PostgresAdapter) hasColumn(field string) bool {
	for _, c := range p.spec.columns {
		if c == field {
			return true
		}
	}
	return false
}

// scanRecord reads the current row into a RawRecord keyed by column name.
func scanRecord(rows *sql.Rows, columns []string) (listing.RawRecord, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	rec := make(listing.RawRecord, len(columns))
	for i, col := range columns {
		rec[col] = coerceDBValue(values[i])
	}
	return rec, nil
}

// coerceDBValue turns driver values into the shapes the normalizer expects.
// Byte slices become strings; JSON arrays and Postgres array literals become
// []any so image lists survive the heterogeneous column types.
func coerceDBValue(v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)

	switch {
	case strings.HasPrefix(s, "["):
		var arr []any
		if err := json.Unmarshal(b, &arr); err == nil {
			return arr
		}
	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && !strings.Contains(s, ":"):
		return parseTextArray(s)
	}
	return s
}

// parseTextArray decodes a flat Postgres text array literal like
// {a,"b c",d}. Nested arrays do not occur in these schemas.
func parseTextArray(s string) []any {
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	if inner == "" {
		return []any{}
	}

	var out []any
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == '\\' && i+1 < len(inner):
			i++
			cur.WriteByte(inner[i])
		case c == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, cur.String())
	return out
}
