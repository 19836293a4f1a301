package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_Enabled(t *testing.T) {
	assert.True(t, Info.Enabled(Error))
	assert.True(t, Info.Enabled(Info))
	assert.False(t, Info.Enabled(Debug))
	assert.True(t, Fatal.Enabled(Fatal))
	assert.False(t, Fatal.Enabled(Error))
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", Warn.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestText_In(t *testing.T) {
	msg := En("[Core] %d adapters", 2).Zh("[Core] %d 个适配器", 2)
	assert.Equal(t, "[Core] 2 adapters", msg.In("en"))
	assert.Equal(t, "[Core] 2 个适配器", msg.In("zh"))

	onlyEn := En("plain")
	assert.Equal(t, "plain", onlyEn.In("zh"))
}

func TestText_NoArgsKeepsPercent(t *testing.T) {
	assert.Equal(t, "100%", En("100%").EN)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "", FirstLine(nil))
	assert.Equal(t, "bad syntax", FirstLine(errors.New("bad syntax\n  at line 3\n  at line 4")))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Log(Error, En("[Loader] failed: x"))
	r.Log(Info, En("[Loader] loaded"))
	r.Log(Error, En("[Core] other"))

	assert.Len(t, r.Entries(), 3)
	assert.Equal(t, 1, r.Count(Error, "[Loader]"))
	assert.Len(t, r.AtLevel(Error), 2)
}

func TestZeroLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: Warn, Lang: "en", Console: &buf, NoColor: true})
	require.NoError(t, err)

	l.Log(Info, En("hidden info"))
	l.Log(Error, En("visible error"))
	l.Log(Fatal, En("visible fatal"))

	out := buf.String()
	assert.NotContains(t, out, "hidden info")
	assert.Contains(t, out, "visible error")
	assert.Contains(t, out, "visible fatal")
}

func TestZeroLogger_ChineseAndFile(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	l, err := New(Config{Level: Debug, Lang: "zh", Dir: dir, Console: &buf, NoColor: true})
	require.NoError(t, err)

	l.Log(Info, En("loaded").Zh("加载完成"))
	require.NoError(t, l.Close())

	assert.Contains(t, buf.String(), "加载完成")
	data, err := os.ReadFile(filepath.Join(dir, "justrobot.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "加载完成")
	assert.Equal(t, "zh", l.Lang())
}
