package postag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "newsgraph/backend/pkg/errors"
)

func corpus() [][]TaggedWord {
	return [][]TaggedWord{
		{{"මම", "PRP"}, {"ගෙදර", "NNC"}, {"යමි", "VFM"}},
		{{"ඔහු", "PRP"}, {"පාසල", "NNC"}, {"යයි", "VFM"}},
		{{"මම", "PRP"}, {"පොත", "NNC"}, {"කියවමි", "VFM"}},
	}
}

func TestFeatures(t *testing.T) {
	tokens := []string{"New", "York-based", "2024"}

	get := func(i int) map[string]string {
		out := make(map[string]string)
		for _, f := range Features(tokens, i) {
			out[f.Name] = f.Value
		}
		return out
	}

	first := get(0)
	assert.Equal(t, "New", first["word"])
	assert.Equal(t, "true", first["is_first"])
	assert.Equal(t, "false", first["is_last"])
	assert.Equal(t, "true", first["is_capitalized"])
	assert.Equal(t, "false", first["is_all_caps"])
	assert.Equal(t, "", first["prev_word"])
	assert.Equal(t, "York-based", first["next_word"])
	assert.Equal(t, "Ne", first["prefix-2"])
	assert.Equal(t, "New", first["suffix-3"])

	middle := get(1)
	assert.Equal(t, "true", middle["has_hyphen"])
	assert.Equal(t, "false", middle["capitals_inside"])
	assert.Equal(t, "New", middle["prev_word"])

	last := get(2)
	assert.Equal(t, "true", last["is_last"])
	assert.Equal(t, "true", last["is_numeric"])
	assert.Equal(t, "", last["next_word"])

	assert.Len(t, Features(tokens, 0), 17)
}

func TestFeatures_ShortWordsUseRunes(t *testing.T) {
	f := Features([]string{"මම"}, 0)
	values := make(map[string]string)
	for _, x := range f {
		values[x.Name] = x.Value
	}
	assert.Equal(t, "ම", values["prefix-1"])
	assert.Equal(t, "මම", values["prefix-2"])
	assert.Equal(t, "", values["prefix-3"])
	assert.Equal(t, "false", values["capitals_inside"])
}

func TestTrainAndPredict(t *testing.T) {
	m, err := Train(corpus(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, m.Version)
	assert.Equal(t, 3, m.Sentences)
	assert.Equal(t, 9, m.Tokens)
	assert.Equal(t, []string{"NNC", "PRP", "VFM"}, m.Tags())

	assert.Equal(t, []string{"PRP", "NNC", "VFM"}, m.Predict([]string{"මම", "ගෙදර", "යමි"}))
	assert.Empty(t, m.Predict(nil))
}

func TestTrain_NoData(t *testing.T) {
	_, err := Train(nil, "v")
	assert.ErrorIs(t, err, ErrNoTrainingData)

	_, err = Train([][]TaggedWord{{}}, "v")
	assert.ErrorIs(t, err, ErrNoTrainingData)
}

func TestModel_SaveLoad(t *testing.T) {
	m, err := Train(corpus(), "test_v2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "pos.json")
	require.NoError(t, m.Save(path))

	loaded, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, "test_v2", loaded.Version)
	assert.Equal(t, m.TagCounts, loaded.TagCounts)

	tokens := []string{"ඔහු", "පොත", "කියවමි"}
	assert.Equal(t, m.Predict(tokens), loaded.Predict(tokens))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadModel_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadModel(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadModel(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"version":"x"}`), 0o644))
	_, err = LoadModel(empty)
	assert.Error(t, err)
}

func TestTagger(t *testing.T) {
	m, err := Train(corpus(), "")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pos.json")
	require.NoError(t, m.Save(path))

	tagger := NewTagger(path)
	require.True(t, tagger.Ready())
	assert.Equal(t, DefaultVersion, tagger.Version())

	got, err := tagger.Tag("  මම   ගෙදර යමි ")
	require.NoError(t, err)
	assert.Equal(t, []TaggedWord{{"මම", "PRP"}, {"ගෙදර", "NNC"}, {"යමි", "VFM"}}, got)

	got, err = tagger.Tag("   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTagger_NotLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	tagger := NewTagger(path)
	assert.False(t, tagger.Ready())
	assert.Equal(t, "", tagger.Version())

	for i := 0; i < 2; i++ {
		_, err := tagger.Tag("මම ගෙදර යමි")
		var nl *apperrors.ErrModelNotLoaded
		require.ErrorAs(t, err, &nl)
		assert.Equal(t, path, nl.Path)
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeTagger))
	}

	var nilTagger *Tagger
	_, err := nilTagger.Tag("x")
	assert.Error(t, err)
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		cell    string
		want    TaggedWord
		wantErr bool
	}{
		{"('මම', 'PRP')", TaggedWord{"මම", "PRP"}, false},
		{` ("it's", "PRP") `, TaggedWord{"it's", "PRP"}, false},
		{`('a\'b', 'NN',)`, TaggedWord{"a'b", "NN"}, false},
		{"('x', 'NN', 'extra')", TaggedWord{}, true},
		{"('x')", TaggedWord{}, true},
		{"x, NN", TaggedWord{}, true},
		{"('x', '')", TaggedWord{}, true},
		{"('unterminated, 'NN')", TaggedWord{}, true},
		{"(1, 'NN')", TaggedWord{}, true},
	}

	for _, tt := range tests {
		got, err := ParseCell(tt.cell)
		if tt.wantErr {
			assert.Error(t, err, tt.cell)
			continue
		}
		require.NoError(t, err, tt.cell)
		assert.Equal(t, tt.want, got)
	}
}

func TestReadCorpus(t *testing.T) {
	data := strings.Join([]string{
		`"('මම', 'PRP')","('ගෙදර', 'NNC')","('යමි', 'VFM')"`,
		``,
		`"('ඔහු', 'PRP')",garbage,"('යයි', 'VFM')"`,
		`garbage`,
	}, "\n")

	sentences, skipped, err := ReadCorpus(strings.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, sentences, 2)
	assert.Len(t, sentences[0], 3)
	assert.Equal(t, []TaggedWord{{"ඔහු", "PRP"}, {"යයි", "VFM"}}, sentences[1])
}
