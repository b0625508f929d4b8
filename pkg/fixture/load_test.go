package fixture

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSuite(t *testing.T) {
	suite, err := Load(filepath.Join("testdata", "L048.yml"))
	require.NoError(t, err)
	require.Equal(t, 6, suite.Len())

	// Declaration order must survive loading
	assert.Equal(t, []string{
		"test_pass_quoted_literal",
		"test_pass_spaced_concatenation",
		"test_fail_unspaced_concatenation",
		"test_pass_commas_in_in_list",
		"test_pass_bigquery_triple_quoted_udf",
		"test_pass_bigquery_triple_double_quoted_udf",
	}, suite.Names())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does-not-exist.yml"))
	require.Error(t, err)
}

func TestParsePassCase(t *testing.T) {
	suite, err := Parse([]byte("my_case:\n  pass_str: SELECT 'foo'\n"), "inline")
	require.NoError(t, err)
	require.Equal(t, 1, suite.Len())

	c := suite.Cases[0]
	assert.Equal(t, "my_case", c.Name)
	assert.Equal(t, ModePass, c.Expect.Mode())
	assert.Equal(t, "SELECT 'foo'", c.Expect.SQL())
	_, hasFix := c.Expect.Fix()
	assert.False(t, hasFix)
	assert.Nil(t, c.Overrides)
}

func TestParseFailCaseWithFix(t *testing.T) {
	src := `bad_concat:
  fail_str: SELECT ('foo'||'bar') as buzz
  fix_str: SELECT ('foo' || 'bar') as buzz
`
	suite, err := Parse([]byte(src), "inline")
	require.NoError(t, err)

	c := suite.Cases[0]
	assert.Equal(t, ModeFail, c.Expect.Mode())
	assert.Equal(t, "SELECT ('foo'||'bar') as buzz", c.Expect.SQL())
	fixed, ok := c.Expect.Fix()
	require.True(t, ok)
	assert.Equal(t, "SELECT ('foo' || 'bar') as buzz", fixed)
}

func TestParseFlattensConfigOverrides(t *testing.T) {
	src := `bq_case:
  pass_str: SELECT 1
  configs:
    core:
      dialect: bigquery
`
	suite, err := Parse([]byte(src), "inline")
	require.NoError(t, err)

	c := suite.Cases[0]
	assert.Equal(t, map[string]any{"core.dialect": "bigquery"}, c.Overrides)

	dialect, ok := c.Dialect()
	require.True(t, ok)
	assert.Equal(t, "bigquery", dialect)
}

func TestParseMultilineSQL(t *testing.T) {
	src := `multiline:
  pass_str: |
    SELECT
        col1
    FROM my_table;
`
	suite, err := Parse([]byte(src), "inline")
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n    col1\nFROM my_table;\n", suite.Cases[0].Expect.SQL())
}

func TestParseEmptyDocument(t *testing.T) {
	suite, err := Parse(nil, "inline")
	require.NoError(t, err)
	assert.Equal(t, 0, suite.Len())
}

func TestParseRejectsMalformedCases(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason string
	}{
		{
			name:   "both pass and fail",
			src:    "c:\n  pass_str: SELECT 1\n  fail_str: SELECT 2\n",
			reason: "both pass_str and fail_str",
		},
		{
			name:   "neither pass nor fail",
			src:    "c:\n  configs:\n    core:\n      dialect: bigquery\n",
			reason: "neither pass_str nor fail_str",
		},
		{
			name:   "fix on pass case",
			src:    "c:\n  pass_str: SELECT 1\n  fix_str: SELECT 2\n",
			reason: "fix_str is only valid with fail_str",
		},
		{
			name:   "empty pass sql",
			src:    "c:\n  pass_str: \"  \"\n",
			reason: "pass_str must not be empty",
		},
		{
			name:   "empty fail sql",
			src:    "c:\n  fail_str: \"\"\n",
			reason: "fail_str must not be empty",
		},
		{
			name:   "unknown key",
			src:    "c:\n  pass_str: SELECT 1\n  expected: nope\n",
			reason: "unknown key",
		},
		{
			name:   "non-string pass value",
			src:    "c:\n  pass_str: [1, 2]\n",
			reason: "pass_str must be a string",
		},
		{
			name:   "duplicate case name",
			src:    "c:\n  pass_str: SELECT 1\nc:\n  pass_str: SELECT 2\n",
			reason: "duplicate case name",
		},
		{
			name:   "scalar body",
			src:    "c: SELECT 1\n",
			reason: "case body must be a mapping",
		},
		{
			name:   "top level sequence",
			src:    "- pass_str: SELECT 1\n",
			reason: "top level must be a mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "inline")
			require.Error(t, err)

			var malformed *MalformedFixtureError
			require.ErrorAs(t, err, &malformed)
			assert.Contains(t, malformed.Error(), tt.reason)
		})
	}
}

func TestCheckCollectsAllProblems(t *testing.T) {
	src := `first:
  pass_str: SELECT 1
  fix_str: SELECT 2
second:
  fail_str: SELECT 3
third:
  pass_str: SELECT 4
  fail_str: SELECT 5
`
	problems := Check([]byte(src), "inline")
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0].Error(), `case "first"`)
	assert.Contains(t, problems[1].Error(), `case "third"`)
}

func TestCheckCleanSuite(t *testing.T) {
	data := []byte("ok:\n  pass_str: SELECT 1\n")
	assert.Empty(t, Check(data, "inline"))
}

func TestMalformedFixtureErrorWithoutCase(t *testing.T) {
	err := &MalformedFixtureError{Source: "f.yml", Reason: "boom"}
	assert.Equal(t, "malformed fixture f.yml: boom", err.Error())
}
