package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	assert.True(t, Default.HasInstitute("ঢাকা পলিটেকনিক ইনস্টিটিউট"))
	assert.True(t, Default.HasDepartment("কম্পিউটার টেকনোলজি"))
	assert.NotEmpty(t, Default.Semesters)
	assert.True(t, Default.HasSemester(Default.Semesters[0]))
	assert.False(t, Default.HasInstitute("Hogwarts"))
}

func TestParseRejectsIncomplete(t *testing.T) {
	_, err := Parse([]byte("institutes: [a]\ndepartments: []\nsemesters: [x]\n"))
	require.Error(t, err)

	_, err = Parse([]byte("institutes: [a"))
	require.Error(t, err)
}
