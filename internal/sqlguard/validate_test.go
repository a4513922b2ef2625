package sqlguard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsEmptyQuery(t *testing.T) {
	verdict := Validate("   \n\t")
	require.False(t, verdict.Safe)
	require.Contains(t, verdict.Reason, "empty")
}

func TestValidateRejectsStackedDropStatement(t *testing.T) {
	verdict := Validate("SELECT * FROM users; DROP TABLE users; --")
	require.False(t, verdict.Safe)
	require.Contains(t, verdict.Reason, "DROP")
}

func TestValidateRejectsMutatingKeywordsWholeWordAnyCase(t *testing.T) {
	for _, query := range []string{
		"drop table companies",
		"SELECT 1; DELETE FROM t",
		"Truncate table logs",
		"ALTER TABLE t ADD COLUMN x INT",
		"create index idx on t(a)",
		"insert into t values (1)",
		"UPDATE t SET a = 1",
		"REPLACE INTO t VALUES (1)",
		"GRANT ALL ON *.* TO 'u'",
		"revoke select on t from u",
		"EXEC master..something",
		"execute procedure p",
	} {
		verdict := Validate(query)
		require.Falsef(t, verdict.Safe, "query %q should be rejected", query)
		require.Contains(t, verdict.Reason, "dangerous keyword")
	}
}

func TestValidateAllowsKeywordAsSubstringOfIdentifier(t *testing.T) {
	// "updated_at" contains "update" but not as a whole word.
	verdict := Validate("SELECT name, updated_at FROM companies LIMIT 10")
	require.True(t, verdict.Safe, verdict.Reason)
}

func TestValidateRejectsPrivilegedProcedurePrefixes(t *testing.T) {
	verdict := Validate("SELECT 1 WHERE xp_cmdshell('dir')")
	require.False(t, verdict.Safe)

	verdict = Validate("SELECT sp_executesql")
	require.False(t, verdict.Safe)
	require.Contains(t, verdict.Reason, "SP_EXECUTESQL")
}

func TestValidateRejectsInjectionSignatures(t *testing.T) {
	for _, query := range []string{
		"SELECT * FROM users WHERE id = 1 OR 1=1",
		"SELECT * FROM users WHERE name = '' OR '1'='1'",
		"SELECT a FROM t UNION SELECT password FROM users",
		"SELECT a FROM t --",
		"SELECT a FROM t /* hidden */ WHERE b = 1",
	} {
		verdict := Validate(query)
		require.Falsef(t, verdict.Safe, "query %q should be rejected", query)
		require.Contains(t, verdict.Reason, "injection pattern")
	}
}

func TestValidateRejectsMultipleStatementTerminators(t *testing.T) {
	verdict := Validate("SELECT 1; SELECT 2;")
	require.False(t, verdict.Safe)
	require.Contains(t, verdict.Reason, "multiple statements")
}

func TestValidateAcceptsReadOnlyCorpus(t *testing.T) {
	corpus := []string{
		"SELECT name, COUNT(DISTINCT eid) AS cnt FROM companies GROUP BY name LIMIT 1000",
		"SELECT c.name, SUM(f.amount) FROM companies c LEFT JOIN financing_rounds f ON c.eid = f.eid COLLATE utf8mb4_unicode_ci GROUP BY c.name",
		"SELECT province, city FROM companies WHERE reg_date >= '2023-01-01' ORDER BY province",
		"SELECT YEAR(round_date), IFNULL(SUM(amount), 0) FROM financing_rounds GROUP BY YEAR(round_date)",
		"SELECT name FROM companies WHERE name = '广州融资科技' LIMIT 100",
		"SELECT t.name FROM (SELECT name FROM companies WHERE city = 'Shenzhen') AS t;",
		strings.Join([]string{
			"SELECT",
			"    ic.name AS industry_name,",
			"    COUNT(*) AS total",
			"FROM financing_rounds rf",
			"LEFT JOIN industry_codes ic ON rf.eid = ic.eid COLLATE utf8mb4_unicode_ci",
			"GROUP BY ic.name",
			"LIMIT 1000",
		}, "\n"),
	}
	for _, query := range corpus {
		verdict := Validate(query)
		require.Truef(t, verdict.Safe, "query %q rejected: %s", query, verdict.Reason)
	}
}

func TestSanitizeFreeTextStripsDangerousSequences(t *testing.T) {
	got := SanitizeFreeText(`financing'; -- trends /* 2025 */ "q1"`)
	require.NotContains(t, got, "'")
	require.NotContains(t, got, ";")
	require.NotContains(t, got, "--")
	require.NotContains(t, got, "/*")
	require.NotContains(t, got, `"`)
	require.Equal(t, "financing  trends  2025  q1", got)
}

func TestSanitizeFreeTextEmptyInput(t *testing.T) {
	require.Equal(t, "", SanitizeFreeText(""))
}

func TestValidateIdentifier(t *testing.T) {
	require.True(t, ValidateIdentifier("financing_rounds").Safe)
	require.True(t, ValidateIdentifier("_tmp1").Safe)
	require.False(t, ValidateIdentifier("").Safe)
	require.False(t, ValidateIdentifier("1table").Safe)
	require.False(t, ValidateIdentifier("users; drop").Safe)
	require.False(t, ValidateIdentifier(strings.Repeat("a", 65)).Safe)
}
