package clarify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-assistant/internal/interpreter/intent"
	"crm-assistant/internal/models"
)

func TestResolve_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n "} {
		result := Resolve(nil, raw, Options{})

		assert.True(t, result.IsAmbiguous)
		require.NotNil(t, result.Clarification)
		assert.Equal(t, ReasonEmptyInput, result.Clarification.Reason)
		assert.True(t, result.Clarification.CanRetry)
	}
}

func TestResolve_VoiceGarble(t *testing.T) {
	parsed := intent.Parse("aaaa")
	result := Resolve(&parsed, "aaaa", Options{Origin: models.OriginVoice})

	assert.True(t, result.IsAmbiguous)
	require.NotNil(t, result.Clarification)
	assert.Equal(t, ReasonVagueRequest, result.Clarification.Reason)
	assert.True(t, result.Clarification.OfferTextFallback)
}

func TestResolve_GarbleIgnoredForTextOrigin(t *testing.T) {
	parsed := intent.Parse("123456")
	result := Resolve(&parsed, "123456", Options{Origin: models.OriginText})

	require.NotNil(t, result.Clarification)
	assert.NotEqual(t, true, result.Clarification.OfferTextFallback)
}

func TestResolve_VagueFiller(t *testing.T) {
	for _, raw := range []string{"hmm", "idk", "do it", "okay"} {
		parsed := intent.Parse(raw)
		result := Resolve(&parsed, raw, Options{})

		assert.True(t, result.IsAmbiguous, "expected %q to be ambiguous", raw)
		require.NotNil(t, result.Clarification)
		assert.Equal(t, ReasonVagueRequest, result.Clarification.Reason)
	}
}

func TestResolve_DestructiveCommands(t *testing.T) {
	t.Run("short destructive command is blocked", func(t *testing.T) {
		parsed := intent.Parse("delete leads")
		result := Resolve(&parsed, "delete leads", Options{})

		assert.True(t, result.IsAmbiguous)
		require.NotNil(t, result.Clarification)
		assert.Equal(t, ReasonMissingDetails, result.Clarification.Reason)
	})

	t.Run("destructive command without entity is blocked", func(t *testing.T) {
		raw := "please remove everything from last year right away"
		parsed := intent.Parse(raw)
		result := Resolve(&parsed, raw, Options{})

		assert.True(t, result.IsAmbiguous)
		require.NotNil(t, result.Clarification)
		assert.Equal(t, ReasonMissingDetails, result.Clarification.Reason)
	})

	t.Run("long destructive command naming an entity is forwarded", func(t *testing.T) {
		raw := "delete the duplicate leads imported from the acme trade show list"
		parsed := intent.Parse(raw)
		result := Resolve(&parsed, raw, Options{})

		assert.False(t, result.IsAmbiguous)
		assert.Nil(t, result.Clarification)
	})
}

func TestResolve_MissingEntity(t *testing.T) {
	raw := "summarize everything from last week"
	parsed := intent.Parse(raw)
	require.Equal(t, intent.EntityGeneral, parsed.Entity)

	result := Resolve(&parsed, raw, Options{})

	assert.True(t, result.IsAmbiguous)
	require.NotNil(t, result.Clarification)
	assert.Equal(t, ReasonMissingDetails, result.Clarification.Reason)
	assert.Contains(t, result.Clarification.Hint, "summarize")
}

func TestResolve_LowConfidence(t *testing.T) {
	raw := "flibbertigibbet quux zorp"
	parsed := intent.Parse(raw)

	result := Resolve(&parsed, raw, Options{})

	assert.True(t, result.IsAmbiguous)
	require.NotNil(t, result.Clarification)
	assert.Equal(t, ReasonLowConfidence, result.Clarification.Reason)
}

func TestResolve_ActionableInput(t *testing.T) {
	raw := "show me my open leads from last week"
	parsed := intent.Parse(raw)

	result := Resolve(&parsed, raw, Options{})

	assert.False(t, result.IsAmbiguous)
	assert.Nil(t, result.Clarification)
}

func TestIsLikelyVoiceGarble(t *testing.T) {
	garbled := []string{"a", "um", "aaaa", "....", "123456", "???!!!"}
	for _, input := range garbled {
		assert.True(t, IsLikelyVoiceGarble(input), "expected %q to be garble", input)
	}

	clean := []string{"show me leads", "create account"}
	for _, input := range clean {
		assert.False(t, IsLikelyVoiceGarble(input), "expected %q to be clean", input)
	}
}

func TestContextualExamples(t *testing.T) {
	leads := ContextualExamples(intent.EntityLeads)
	assert.NotEmpty(t, leads)
	assert.Contains(t, strings.ToLower(strings.Join(leads, " ")), "lead")

	general := ContextualExamples(intent.EntityGeneral)
	assert.NotEmpty(t, general)
	assert.Equal(t, general, ContextualExamples(intent.Entity("unknown")))
}

func TestBuildFallbackMessage_Escalation(t *testing.T) {
	parsed := intent.Parse("show me stuff")

	t.Run("first failure is generic", func(t *testing.T) {
		fb := BuildFallbackMessage(&parsed, "show me stuff", 1)
		assert.Contains(t, fb.Message, "I'm not sure")
		assert.NotContains(t, fb.Message, "contact support")
		assert.Len(t, fb.Actions, 2)
	})

	t.Run("second failure adds examples", func(t *testing.T) {
		fb := BuildFallbackMessage(&parsed, "show me stuff", 2)
		assert.Contains(t, fb.Message, "you could try")
		assert.NotContains(t, fb.Message, "contact support")
	})

	t.Run("third failure offers support escalation", func(t *testing.T) {
		fb := BuildFallbackMessage(&parsed, "show me stuff", 3)
		assert.Contains(t, fb.Message, "contact support")

		found := false
		for _, action := range fb.Actions {
			if action.Type == models.ActionEscalateSupport {
				found = true
			}
		}
		assert.True(t, found, "expected an escalate_support action")
	})

	t.Run("pure in its inputs", func(t *testing.T) {
		first := BuildFallbackMessage(&parsed, "show me stuff", 3)
		second := BuildFallbackMessage(&parsed, "show me stuff", 3)
		assert.Equal(t, first, second)
	})
}
