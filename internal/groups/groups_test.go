package groups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyFirstMatchWins(t *testing.T) {
	// "crm" appears in both groups; order decides the winner.
	c := NewClassifier([]Group{
		{Name: "SAP", Keywords: []string{"sap", "crm"}},
		{Name: "Marketing", Keywords: []string{"marketing", "crm"}},
	})
	require.Equal(t, "SAP", c.Classify("SAP CRM Consultant"))
	require.Equal(t, "SAP", c.Classify("CRM Spezialist"))
	require.Equal(t, "Marketing", c.Classify("Online Marketing"))
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(Default())
	first := c.Classify("SAP CRM Consultant")
	for i := 0; i < 50; i++ {
		require.Equal(t, first, c.Classify("SAP CRM Consultant"))
	}
}

func TestClassifyFallback(t *testing.T) {
	c := NewClassifier([]Group{{Name: "Data", Keywords: []string{"sql"}}})
	require.Equal(t, Fallback, c.Classify("Gartenbau"))
	require.Equal(t, Fallback, c.Classify(""))
	require.Equal(t, Fallback, c.Classify("   "))
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := NewClassifier([]Group{{Name: "Data", Keywords: []string{"SQL"}}})
	require.Equal(t, "Data", c.Classify("sql entwickler"))
	require.Equal(t, "Data", c.Classify("Senior SQL Developer"))
}

func TestLoad(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "groups.yaml")
		content := `
- name: SAP
  keywords: [sap, crm]
- name: Marketing
  keywords: [marketing, crm]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		gs, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, []string{"SAP", "Marketing"}, NewClassifier(gs).Names())
	})

	t.Run("rejects empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "groups.yaml")
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
