// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/carekg/pkg/types"
)

// --- helpers ---

func filter(records []types.ExtractionRecord, source types.RecordSource, cat types.Category) []types.ExtractionRecord {
	var out []types.ExtractionRecord
	for _, r := range records {
		if r.Source == source && r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

func bySource(records []types.ExtractionRecord, source types.RecordSource) []types.ExtractionRecord {
	var out []types.ExtractionRecord
	for _, r := range records {
		if r.Source == source {
			out = append(out, r)
		}
	}
	return out
}

// --- scenarios ---

func TestExtract_BathingAndSideEffects(t *testing.T) {
	text := "Assist with bathing and monitor for side effects."
	records := Extract(text)

	adl := filter(records, types.SourceHeuristic, types.CategoryCareTask)
	require.Len(t, adl, 1)
	assert.Equal(t, "CareTask", adl[0].Node.Label)
	assert.Equal(t, "ADL Assistance", adl[0].Node.Properties["domain"])
	assert.Equal(t, text, adl[0].Node.Properties["instruction"])
	assert.Nil(t, adl[0].Span)

	med := filter(records, types.SourcePattern, types.CategoryMedicationSafety)
	require.Len(t, med, 1)
	assert.Equal(t, "MedicationSafety", med[0].Node.Label)
	assert.Equal(t, "monitor for side effects", med[0].Node.Properties["matched_text"])
	require.NotNil(t, med[0].Span)

	care := filter(records, types.SourcePattern, types.CategoryCareTask)
	require.Len(t, care, 1)
	assert.Equal(t, text, care[0].Node.Properties["matched_text"])

	assert.Len(t, records, 3)
	assert.Empty(t, filter(records, types.SourceFallback, types.CategoryKnowledgeChunk))
}

func TestExtract_TUGScore(t *testing.T) {
	records := Extract("The patient's TUG test result was 14.2 seconds, indicating high fall risk.")

	scoring := filter(records, types.SourceHeuristic, types.CategoryScoringRule)
	require.Len(t, scoring, 1)
	props := scoring[0].Node.Properties
	assert.Equal(t, "ScoringRule", scoring[0].Node.Label)
	assert.Equal(t, "TUG", props["assessment"])
	assert.Equal(t, "14.2", props["threshold"])
	assert.Equal(t, "Cutoff at 14.2 seconds for fall risk", props["logic"])
	assert.Equal(t, "14.2 seconds", props["evidence"])
}

func TestExtract_TUGWithoutNumber(t *testing.T) {
	records := Extract("Use the timed up and go test at every annual visit.")
	assert.Empty(t, filter(records, types.SourceHeuristic, types.CategoryScoringRule))
}

func TestExtract_TUGFullName(t *testing.T) {
	records := Extract("A Timed Up and Go time of 12 seconds or longer suggests risk.")
	scoring := filter(records, types.SourceHeuristic, types.CategoryScoringRule)
	require.Len(t, scoring, 1)
	assert.Equal(t, "12", scoring[0].Node.Properties["threshold"])
}

func TestExtract_TUGNeedsWholeWord(t *testing.T) {
	records := Extract("Staff tugged the chair 3 seconds later.")
	assert.Empty(t, filter(records, types.SourceHeuristic, types.CategoryScoringRule))
}

func TestExtract_ShortTextNoKeywords(t *testing.T) {
	text := "The garden path was quiet and calm this afternoon."
	require.LessOrEqual(t, len(text), fallbackMinLength)
	assert.Empty(t, Extract(text))
}

func TestExtract_EnvironmentDetectorFiresOnce(t *testing.T) {
	records := Extract("Install a grab bar beside the toilet and improve lighting in the hallway at night.")

	env := filter(records, types.SourceHeuristic, types.CategoryEnvironmentAction)
	require.Len(t, env, 1)
	assert.Equal(t, "Home Safety", env[0].Node.Properties["category"])

	// The pattern library still reports its own match.
	assert.Len(t, filter(records, types.SourcePattern, types.CategoryEnvironmentAction), 1)
}

func TestExtract_MedicationSafetyDetector(t *testing.T) {
	records := Extract("The Beers Criteria list potentially inappropriate medication for seniors.")
	med := filter(records, types.SourceHeuristic, types.CategoryMedicationRule)
	require.Len(t, med, 1)
	assert.Equal(t, "MedicationRule", med[0].Node.Label)
	assert.Equal(t, "SafetyAlert", med[0].Node.Properties["type"])
	assert.Equal(t, "Potentially Inappropriate Medication for Older Adults", med[0].Node.Properties["description"])
}

func TestExtract_RedFlagDetector(t *testing.T) {
	text := "Call the nurse if confusion starts to worsen overnight."
	records := Extract(text)
	obs := filter(records, types.SourceHeuristic, types.CategoryObservationTask)
	require.Len(t, obs, 1)
	assert.Equal(t, "Clinical Red Flags", obs[0].Node.Properties["name"])
	assert.Equal(t, text, obs[0].Node.Properties["trigger"])
}

func TestExtract_InstructionTruncatedTo500Characters(t *testing.T) {
	text := "Help with dressing. " + strings.Repeat("é", 700)
	records := Extract(text)
	adl := filter(records, types.SourceHeuristic, types.CategoryCareTask)
	require.Len(t, adl, 1)
	instruction := adl[0].Node.Properties["instruction"]
	assert.Equal(t, 500, len([]rune(instruction)))
	assert.True(t, strings.HasPrefix(text, instruction))
}

func TestExtract_HeuristicOrder(t *testing.T) {
	text := "TUG over 13.5 seconds. Review the Beers criteria. Help with toileting. Remove rugs. Report falls. Can you stand?"
	records := bySource(Extract(text), types.SourceHeuristic)

	var got []string
	for _, r := range records {
		got = append(got, r.Detector)
	}
	assert.Equal(t, []string{
		DetectorAssessmentScore,
		DetectorMedicationSafety,
		DetectorADL,
		DetectorEnvironment,
		DetectorRedFlag,
		DetectorQuestion,
	}, got)
}

// --- questions ---

func TestDetectQuestions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "question marks",
			text: "Do you feel unsteady when standing or walking? Have you fallen in the past year? Please call us.",
			want: []string{
				"Do you feel unsteady when standing or walking?",
				"Have you fallen in the past year?",
			},
		},
		{
			name: "checklist line without question mark",
			text: "Screening items\nDo you worry about falling\nKeep a list of medicines.",
			want: []string{"Do you worry about falling"},
		},
		{
			name: "imperative is not a question",
			text: "Do not leave clutter on the stairs.",
			want: nil,
		},
		{
			name: "lower-case opener is not an interrogative",
			text: "do you worry about falling",
			want: nil,
		},
		{
			name: "statement ending in question mark",
			text: "Dizzy after standing? Sit down slowly.",
			want: []string{"Dizzy after standing?"},
		},
		{
			name: "decimal stays inside the sentence",
			text: "Did the TUG take longer than 13.5 seconds?",
			want: []string{"Did the TUG take longer than 13.5 seconds?"},
		},
		{
			name: "title abbreviation",
			text: "Has Dr. Lee reviewed the Beers list?",
			want: []string{"Has Dr. Lee reviewed the Beers list?"},
		},
		{
			name: "latin abbreviation",
			text: "Does the patient need help, e.g. with transfers?",
			want: []string{"Does the patient need help, e.g. with transfers?"},
		},
		{
			name: "question wrapped across two lines",
			text: "Does the patient need help\nwith transfers or toileting?",
			want: []string{"Does the patient need help with transfers or toileting?"},
		},
		{
			name: "paragraph with a decimal score",
			text: "A TUG of 12.5 seconds or more signals fall risk. Was the test done twice? Record both times. How long did the second attempt take?",
			want: []string{
				"Was the test done twice?",
				"How long did the second attempt take?",
			},
		},
		{
			name: "blank line ends a sentence",
			text: "Do you use a walker\n\nIs the walker adjusted to your height?",
			want: []string{
				"Do you use a walker",
				"Is the walker adjusted to your height?",
			},
		},
		{
			name: "opener with a period is a statement",
			text: "Do you use a cane. Some people do.",
			want: nil,
		},
		{
			name: "wh-word needs a question mark",
			text: "What to expect at the clinic\nWhat happens after a fall?",
			want: []string{"What happens after a fall?"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := detectQuestions(tt.text, strings.ToLower(tt.text))
			var got []string
			for _, r := range records {
				assert.Equal(t, types.CategoryAssessmentQuestion, r.Category)
				assert.Equal(t, "Clinical Screening", r.Node.Properties["context"])
				got = append(got, r.Node.Properties["question"])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// --- fallback ---

func TestExtract_FallbackChunk(t *testing.T) {
	text := "Older adults benefit from regular meals with plenty of vegetables,\n\n and a balanced diet   supports healthy ageing over many years."
	require.Greater(t, len(text), fallbackMinLength)

	records := Extract(text)
	require.Len(t, records, 1)

	chunk := records[0]
	assert.Equal(t, types.SourceFallback, chunk.Source)
	assert.Equal(t, "KnowledgeChunk", chunk.Node.Label)
	assert.Equal(t, "Nutrition", chunk.Node.Properties["topic"])
	assert.Equal(t, "GuidelineText", chunk.Node.Properties["source_type"])

	normalized := "Older adults benefit from regular meals with plenty of vegetables, and a balanced diet supports healthy ageing over many years."
	assert.Equal(t, normalized, chunk.Node.Properties["full_text"])
	assert.Equal(t, normalized+"...", chunk.Node.Properties["text"])
	assert.Nil(t, chunk.Span)
}

func TestExtract_FallbackPreviewTruncated(t *testing.T) {
	text := strings.Repeat("quiet ", 100)
	records := Extract(text)
	require.Len(t, records, 1)
	preview := records[0].Node.Properties["text"]
	assert.Equal(t, 303, len(preview))
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.Equal(t, "GeneralCare", records[0].Node.Properties["topic"])
}

func TestExtract_FallbackExclusivity(t *testing.T) {
	// Long enough for the fallback, but the ADL detector fires.
	text := strings.Repeat("Family members often help with bathing at home. ", 5)
	records := Extract(text)
	assert.NotEmpty(t, bySource(records, types.SourceHeuristic))
	assert.Empty(t, bySource(records, types.SourceFallback))
}

func TestExtract_ShortTextOnlyPatterns(t *testing.T) {
	text := "Avoid sedatives in frail elders."
	require.LessOrEqual(t, len(text), fallbackMinLength)

	records := Extract(text)
	require.NotEmpty(t, records)
	for _, r := range records {
		assert.Equal(t, types.SourcePattern, r.Source)
	}
}

func TestClassifyTopic_LastMatchWins(t *testing.T) {
	tests := []struct {
		text string
		want Topic
	}{
		{"", TopicGeneralCare},
		{"plan a healthy diet", TopicNutrition},
		{"a daily walk helps", TopicPhysicalActivity},
		{"food and family", TopicSocialWellbeing},
		{"diet, exercise and what care will cost", TopicFinancialLegal},
		{"exercise with a friend", TopicSocialWellbeing},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTopic(tt.text))
		})
	}
}

// --- patterns ---

func TestExtract_OverlappingPatternsAllKept(t *testing.T) {
	text := "Nurses monitor blood pressure every day and monitor for dizziness side effects."
	records := bySource(Extract(text), types.SourcePattern)

	care := filter(records, types.SourcePattern, types.CategoryCareTask)
	med := filter(records, types.SourcePattern, types.CategoryMedicationSafety)
	require.Len(t, care, 1)
	require.Len(t, med, 1)

	// The care-task match covers the medication match.
	assert.LessOrEqual(t, care[0].Span.MatchStart, med[0].Span.MatchStart)
	assert.GreaterOrEqual(t, care[0].Span.MatchEnd, med[0].Span.MatchEnd)
}

func TestExtract_PatternsIndependentOfHeuristics(t *testing.T) {
	withHeuristic := Extract("Assist with feeding at lunch.")
	withoutHeuristic := Extract("Assist with meals at lunch.")

	assert.Len(t, filter(withHeuristic, types.SourcePattern, types.CategoryCareTask), 1)
	assert.Len(t, filter(withoutHeuristic, types.SourcePattern, types.CategoryCareTask), 1)
}

func TestExtract_PatternCaseInsensitive(t *testing.T) {
	records := Extract("THRESHOLD IS 30 POINTS.")
	logic := filter(records, types.SourcePattern, types.CategoryAssessmentLogic)
	require.Len(t, logic, 1)
	assert.Equal(t, "AssessmentLogic", logic[0].Node.Label)
	assert.Equal(t, "THRESHOLD IS 30 POINTS.", logic[0].Node.Properties["matched_text"])
}

func TestExtract_PatternContextWindow(t *testing.T) {
	head := strings.Repeat("a", 80) + " "
	tail := " " + strings.Repeat("b", 80)
	text := head + "dosage must be reduced\n" + tail

	med := filter(Extract(text), types.SourcePattern, types.CategoryMedicationSafety)
	require.Len(t, med, 1)

	span := med[0].Span
	assert.Equal(t, "dosage must be reduced", med[0].Node.Properties["matched_text"])
	assert.Equal(t, len(head), span.MatchStart)
	assert.Equal(t, span.MatchStart-50, span.WindowStart)
	assert.Equal(t, span.MatchEnd+50, span.WindowEnd)
	assert.Equal(t, text[span.WindowStart:span.WindowEnd], med[0].Node.Properties["context"])
}

func TestExtract_SpanContainment(t *testing.T) {
	texts := []string{
		"Ensure the floor is dry.",
		"Résumé — ensure the hallway is lit. Évitez: avoid benzodiazepines in older adults ✓",
		"If the total score is above 4 then refer. Evaluate gait using the TUG. Cutoff of 12 indicates risk.",
		strings.Repeat("ü", 30) + "remind resident to drink water" + strings.Repeat("ß", 30),
		"remove rugs from stairs",
	}
	for _, text := range texts {
		records := bySource(Extract(text), types.SourcePattern)
		require.NotEmpty(t, records, text)
		for _, r := range records {
			s := r.Span
			require.NotNil(t, s)
			assert.True(t, 0 <= s.WindowStart &&
				s.WindowStart <= s.MatchStart &&
				s.MatchStart <= s.MatchEnd &&
				s.MatchEnd <= s.WindowEnd &&
				s.WindowEnd <= len(text), "span %+v out of bounds for %q", *s, text)
			assert.Equal(t, text[s.MatchStart:s.MatchEnd], r.Node.Properties["matched_text"])
		}
	}
}

func TestExtract_Determinism(t *testing.T) {
	text := "Assist with bathing. Ensure the rug is secured. Do you use a cane? Dosage should be reviewed. TUG 15 seconds."
	first := Extract(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Extract(text))
	}
}

func TestExtract_ConcurrentCallsAgree(t *testing.T) {
	text := "Assist with bathing. Install grab bars. Can you stand without help? Monitor for dizziness side effects."
	want := Extract(text)

	var wg sync.WaitGroup
	results := make([][]types.ExtractionRecord, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Extract(text)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestSplitSentences(t *testing.T) {
	text := "Sit for 2.5 minutes. Stand up!  Walk 3 m, e.g. to the door\nand back. Dr. Lee times it.\n\nDone"
	assert.Equal(t, []string{
		"Sit for 2.5 minutes.",
		"Stand up!",
		"Walk 3 m, e.g. to the door and back.",
		"Dr. Lee times it.",
		"Done",
	}, splitSentences(text))
}

func TestExtract_EmptyInput(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("   \n\t "))
}

func TestExtract_InvalidUTF8DoesNotPanic(t *testing.T) {
	text := "assist with \xff\xfe bathing " + strings.Repeat("\xc3", 200)
	assert.NotPanics(t, func() { Extract(text) })
}

func TestExtract_RecordLabelsMatchCategories(t *testing.T) {
	text := "TUG 14 seconds. Beers criteria apply. Help with dressing. Remove hazard items from floors. Report changes. Can you rise?" +
		" Install rails in bathrooms. Threshold is 3. Supervise residents during meals. Avoid alcohol in the evening."
	for _, r := range Extract(text) {
		assert.True(t, r.Category.Valid(), "category %q", r.Category)
		assert.Equal(t, r.Category.Label(), r.Node.Label)
		assert.NotEmpty(t, r.Detector)
	}
}
