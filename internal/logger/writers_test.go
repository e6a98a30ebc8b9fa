package logger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSafeCSVWriterHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trades.csv")
	header := []string{"id", "symbol", "pnl"}

	w, err := NewSafeCSVWriter(path, header, time.Hour, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord([]string{"pos-1", "BTC", "12.5"}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second close is a no-op")

	// Reopening an existing file must not repeat the header.
	w, err = NewSafeCSVWriter(path, header, time.Hour, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord([]string{"pos-2", "ETH", "-3"}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, header, records[0])
	assert.Equal(t, "pos-2", records[2][0])
}

func TestSafeCSVWriterConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.csv")
	w, err := NewSafeCSVWriter(path, []string{"g", "i"}, 5*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := w.WriteRecord([]string{fmt.Sprint(g), fmt.Sprint(i)}); err != nil {
					t.Errorf("write: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	require.NoError(t, w.Flush())
	records, _ := w.GetStats()
	assert.Equal(t, uint64(400), records)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 401, strings.Count(string(data), "\n"))
}

func TestSafeFileWriterLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tape.jsonl")
	w, err := NewSafeFileWriter(path, 5*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, w.WriteLine(fmt.Sprintf(`{"n":%d}`, i)))
	}
	time.Sleep(20 * time.Millisecond)

	lines, flushes := w.GetStats()
	assert.Equal(t, uint64(20), lines)
	assert.Greater(t, flushes, uint64(0))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"n":0}`+"\n"))
	assert.Equal(t, 20, strings.Count(string(data), "\n"))
}
