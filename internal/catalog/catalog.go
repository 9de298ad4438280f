// Package catalog lists the institutes, departments and semesters a student
// can register with.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	Institutes  []string `yaml:"institutes"`
	Departments []string `yaml:"departments"`
	Semesters   []string `yaml:"semesters"`
}

// Default is the embedded catalog.
var Default = mustParse(catalogYAML)

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Institutes) == 0 || len(c.Departments) == 0 || len(c.Semesters) == 0 {
		return nil, fmt.Errorf("catalog is incomplete")
	}
	return &c, nil
}

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) HasInstitute(name string) bool {
	return slices.Contains(c.Institutes, name)
}

func (c *Catalog) HasDepartment(name string) bool {
	return slices.Contains(c.Departments, name)
}

func (c *Catalog) HasSemester(name string) bool {
	return slices.Contains(c.Semesters, name)
}
