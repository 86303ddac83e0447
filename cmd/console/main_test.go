package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"budget-bot/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wizardScript = "/start\n" +
	"#1\n" +
	"100000\n" +
	"Аренда - 25000\\\n" +
	"Кредит - 10000\n" +
	"#1\n" +
	"#1\n" +
	"#2\n"

func TestRun_FullWizard(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_wizard.db")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString(wizardScript)

	args := []string{"-user", "42", "-name", "alice", "-db", dbPath}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "Привет! Я помогу распределить твой бюджет!")
	assert.Contains(t, output, "[#1] Поехали")
	assert.Contains(t, output, "- Аренда: 25000\n- Кредит: 10000\nИтого: 35000")
	assert.Contains(t, output, "🟢 Остаток: 65000")
	assert.Contains(t, output, "📊 Твои расходы = 35.0% от дохода")
	assert.Contains(t, output, "Ты выбрал метод 50/30/20")
	assert.Contains(t, output, "- Желания: 30000")
	assert.Contains(t, output, "🟢 У тебя остаётся 65000")
	assert.Contains(t, output, "Возвращайся")

	// Data survives the session
	db, err := storage.NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	user, err := db.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "method_50_30_20", user.Method)
	assert.Equal(t, "100000", user.Income.String())

	sum, err := db.SumExpenses(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "35000", sum.String())
}

func TestRun_InMemory(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString("/start\n#1\nмного\n")

	args := []string{"-db", ":memory:"}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Неверный формат: много")
}

func TestRun_UnknownButton(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString("/start\n#9\n#0\n")

	err := run([]string{"-db", ":memory:"}, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "No button #9")
	assert.Contains(t, stdout.String(), "No button #0")
}

func TestRun_HashTextIsNotAPress(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString("/start\n#1\n100000\n#1 аренда - 5\n")

	err := run([]string{"-db", ":memory:"}, stdin, stdout, stderr)
	require.NoError(t, err)

	output := stdout.String()
	assert.NotContains(t, output, "No button")
	assert.Contains(t, output, "- #1 аренда: 5\nИтого: 5")
}

func TestIsButtonPress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"#1", true},
		{"#12", true},
		{"#", false},
		{"#x", false},
		{"#1 аренда - 5", false},
		{"#-1", false},
		{"1", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, isButtonPress(tt.in))
		})
	}
}

func TestRun_TextBeforeStart(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString("привет\n")

	err := run([]string{"-db", ":memory:"}, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Нажми /start, чтобы начать.")
}

func TestRun_Quit(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString("/quit\n/start\n")

	err := run([]string{"-db", ":memory:"}, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.NotContains(t, stdout.String(), "Привет")
}

func TestRun_TrailingContinuationIsSent(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	// Input ends while a message is still being continued
	stdin := bytes.NewBufferString("/start\n#1\n100000\nАренда - 25000\\")

	err := run([]string{"-db", ":memory:"}, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Итого: 25000")
}

func TestRun_ZeroUser(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	err := run([]string{"-user", "0"}, stdin, stdout, stderr)
	require.Error(t, err, "expected error for zero user id")
	assert.Contains(t, err.Error(), "user id must be non-zero")

	// Usage should be printed
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_EnvVarOverride(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_env.db")

	t.Setenv("DB_PATH", dbPath)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := bytes.NewBufferString("/start\n")

	// Do not pass -db flag, let it use env var
	err := run(nil, stdin, stdout, stderr)
	require.NoError(t, err)

	// Verify DB file was created at dbPath
	assert.FileExists(t, dbPath)
}

func TestRun_InvalidDBPath(t *testing.T) {
	// Use a directory path as DB file path, which should fail
	tmpDir := t.TempDir()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	err := run([]string{"-db", tmpDir}, stdin, stdout, stderr)
	require.Error(t, err, "expected error for invalid db path")
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidFlag(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	err := run([]string{"-invalid"}, stdin, stdout, stderr)
	require.Error(t, err, "expected error for invalid flag")
	assert.Contains(t, err.Error(), "flag provided but not defined")
}
