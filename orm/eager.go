package orm

import (
	"context"
	"sort"
	"strings"

	"github.com/ormforge/ormforge/connection"
)

// loadEager attaches every relationship named in paths (dot-separated for
// nested paths such as "phone.contacts") onto every model in parents, with
// the N+1-free guarantee from spec §4.5: parents sharing a relationship name
// are loaded with exactly one query for that name, no matter how many
// parents there are or how deep the remaining path goes.
func loadEager(ctx context.Context, resolver *connection.Resolver, parents []Model, paths []string) error {
	if len(parents) == 0 || len(paths) == 0 {
		return nil
	}

	tailsByHead := map[string][]string{}
	seenHead := map[string]bool{}
	var heads []string
	for _, path := range paths {
		head, tail, hasTail := strings.Cut(path, ".")
		if !seenHead[head] {
			seenHead[head] = true
			heads = append(heads, head)
		}
		if hasTail {
			tailsByHead[head] = append(tailsByHead[head], tail)
		}
	}
	sort.Strings(heads)

	for _, head := range heads {
		children, err := loadRelationBatch(ctx, resolver, parents, head)
		if err != nil {
			return err
		}
		if tails := tailsByHead[head]; len(tails) > 0 && len(children) > 0 {
			if err := loadEager(ctx, resolver, children, tails); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadRelationBatch loads relation name for every parent via one call to
// Relationship.LoadBatch, caches each parent's value on its Base, and
// returns the flattened set of related models produced (for recursion into
// a dotted path's tail).
func loadRelationBatch(ctx context.Context, resolver *connection.Resolver, parents []Model, name string) ([]Model, error) {
	meta := parents[0].Base().meta
	rel, ok := meta.Relationships[name]
	if !ok {
		return nil, &ErrConfiguration{Reason: "unresolved relationship target: " + name}
	}

	values, related, err := rel.LoadBatch(ctx, resolver, parents)
	if err != nil {
		return nil, err
	}
	for i, p := range parents {
		b := p.Base()
		b.ensureMaps()
		b.relations[name] = values[i]
	}
	return related, nil
}
