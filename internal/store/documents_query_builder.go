package store

import (
	"strings"
)

type documentQueryBuilder struct {
	filter DocumentQuery
	query  string
	args   []any
	where  []string
}

func buildDocumentQuery(filter DocumentQuery) (string, []any) {
	builder := &documentQueryBuilder{filter: filter}
	builder.buildSelect()
	builder.buildWhere()
	builder.buildOrder()
	builder.buildPagination()
	return builder.query, builder.args
}

func (b *documentQueryBuilder) buildSelect() {
	b.query = "SELECT " + documentColumns + " FROM document"
}

func (b *documentQueryBuilder) buildWhere() {
	b.appendSearch()
	b.appendType()

	if len(b.where) == 0 {
		return
	}
	b.query += " WHERE " + strings.Join(b.where, " AND ")
}

func (b *documentQueryBuilder) buildOrder() {
	b.query += " ORDER BY document_id ASC"
}

func (b *documentQueryBuilder) buildPagination() {
	hasLimit := false
	if b.filter.Limit > 0 {
		b.query += " LIMIT ?"
		b.args = append(b.args, b.filter.Limit)
		hasLimit = true
	}
	if b.filter.Offset > 0 {
		if !hasLimit {
			b.query += " LIMIT -1"
		}
		b.query += " OFFSET ?"
		b.args = append(b.args, b.filter.Offset)
	}
}

// appendSearch matches the term as a case-insensitive substring of the
// number, type or comment.
func (b *documentQueryBuilder) appendSearch() {
	term := strings.TrimSpace(b.filter.Search)
	if term == "" {
		return
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	b.where = append(b.where, `(lower(document_number) LIKE ? ESCAPE '\' OR lower(COALESCE(document_type, '')) LIKE ? ESCAPE '\' OR lower(COALESCE(comment, '')) LIKE ? ESCAPE '\')`)
	b.args = append(b.args, pattern, pattern, pattern)
}

func (b *documentQueryBuilder) appendType() {
	docType := strings.TrimSpace(b.filter.Type)
	if docType == "" {
		return
	}
	b.where = append(b.where, "document_type = ?")
	b.args = append(b.args, docType)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
