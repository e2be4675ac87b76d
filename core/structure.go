package core

import (
	"errors"
	"fmt"
	"sort"
)

// GetGenericStructure converts a result stream with (schema, name, type) rows
// into a structure tree grouped by schema.
func GetGenericStructure(rows ResultStream, getType func(string) StructureType) ([]*Structure, error) {
	children := make(map[string][]*Structure)

	for rows.HasNext() {
		row, err := rows.Next()
		if err != nil {
			return nil, fmt.Errorf("rows.Next: %w", err)
		}

		if len(row) < 3 {
			return nil, errors.New("could not retrieve structure: insufficient data")
		}

		schema := fmt.Sprint(row[0])
		name := fmt.Sprint(row[1])
		typ := fmt.Sprint(row[2])

		children[schema] = append(children[schema], &Structure{
			Name:   name,
			Schema: schema,
			Type:   getType(typ),
		})
	}

	structure := make([]*Structure, 0, len(children))
	for schema, ch := range children {
		structure = append(structure, &Structure{
			Name:     schema,
			Schema:   schema,
			Type:     StructureTypeNone,
			Children: ch,
		})
	}

	sort.Slice(structure, func(i, j int) bool {
		return structure[i].Name < structure[j].Name
	})

	return structure, nil
}
