package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanFilename_StripsIllegalChars(t *testing.T) {
	require.Equal(t, "report2024final.txt", CleanFilename(`report<2024>:final?.txt`))
	require.Equal(t, "abcde", CleanFilename(`a/b\c|d*e`))
	require.Equal(t, "", CleanFilename(`<>:"/\|?*`))
}

func TestCleanFilename_ShortNameUnchanged(t *testing.T) {
	require.Equal(t, "abc.txt", CleanFilename("abc.txt"))
	require.Equal(t, "中文文件名.wav", CleanFilename("中文文件名.wav"))
}

func TestCleanFilename_TruncatesASCII(t *testing.T) {
	got := CleanFilename(strings.Repeat("a", 300))
	want := strings.Repeat("a", 118) + "..." + strings.Repeat("a", 118)
	require.Equal(t, want, got)
	require.LessOrEqual(t, len(got), 240)
}

func TestCleanFilename_TruncatesMultibyte(t *testing.T) {
	// 3 bytes per character: naive character-count truncation would overshoot.
	got := CleanFilename(strings.Repeat("好", 100))
	want := strings.Repeat("好", 39) + "..." + strings.Repeat("好", 39)
	require.Equal(t, want, got)
	require.Equal(t, 237, len(got))
}

func TestCleanFilename_MixedWidth(t *testing.T) {
	name := "【含老师手打分】成都都都（天天天天）-2025级11班-应应应-应应应应：应应应应应应应-5B20443D8A4AC67FD661841F3766ACE8-bb08b373eb7145b18c28cd4be1ec9bf5-分项评分-(20251105-1)-分分分分-[初中-应应应-应应]-(20251105-3).xlsx"
	want := "【含老师手打分】成都都都（天天天天）-2025级11班-应应应-应应应应：应应应应应应应-5B20443D8A4AC67FD661841...c28cd4be1ec9bf5-分项评分-(20251105-1)-分分分分-[初中-应应应-应应]-(20251105-3).xlsx"

	got := CleanFilename(name)
	require.Equal(t, want, got)
	require.Equal(t, 239, len(got))
	require.Equal(t, 1, strings.Count(got, "..."))
	require.True(t, strings.HasPrefix(name, strings.Split(got, "...")[0]))
	require.True(t, strings.HasSuffix(name, strings.Split(got, "...")[1]))
}

func TestCleanFilename_Idempotent(t *testing.T) {
	names := []string{
		"abc.txt",
		`report<2024>:final?.txt`,
		strings.Repeat("a", 300),
		strings.Repeat("好", 100),
		strings.Repeat("x好", 200) + ".xlsx",
		"【含老师手打分】" + strings.Repeat("应", 80) + "-(20251105-3).xlsx",
	}
	for _, name := range names {
		once := CleanFilename(name)
		require.Equal(t, once, CleanFilename(once), "input %q", name)
	}
}

func TestCleanFilename_NeverExceedsBudget(t *testing.T) {
	names := []string{
		strings.Repeat("a", 241),
		strings.Repeat("好", 81),
		strings.Repeat("ab好", 150),
		strings.Repeat("好", 500) + strings.Repeat("z", 500),
	}
	for _, name := range names {
		got := CleanFilename(name)
		require.LessOrEqual(t, len(got), 240, "input %q", name)
		require.NotContainsf(t, got, "/", "input %q", name)
	}
}
