// Package fixture defines the declarative test-case format used to
// exercise SQL lint rules, and loads fixture files into immutable,
// declaration-ordered suites.
//
// A fixture file is a YAML mapping from case name to case body:
//
//	test_fail_unspaced_concatenation:
//	  fail_str: SELECT ('foo'||'bar') as buzz
//	  fix_str: SELECT ('foo' || 'bar') as buzz
//
//	test_pass_bigquery_udf_body:
//	  pass_str: |
//	    CREATE TEMPORARY FUNCTION f() ...
//	  configs:
//	    core:
//	      dialect: bigquery
//
// Exactly one of pass_str or fail_str must be present; fix_str is only
// valid alongside fail_str. The optional configs mapping scopes
// configuration overrides (such as core.dialect) to the single case.
package fixture
