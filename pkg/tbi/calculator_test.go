package tbi

import (
	"reflect"
	"testing"
)

func TestCalculatorIsDeterministic(t *testing.T) {
	a, err := NewCalculator("15/08/1995", "Nguyễn Văn An", "01/06/2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewCalculator("15/08/1995", "Nguyễn Văn An", "01/06/2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(a.Indicators(), b.Indicators()) {
		t.Error("identical inputs must yield identical indicator sets")
	}
}

func TestReductions(t *testing.T) {
	cases := []struct {
		in        int
		keep11_22 int
		masters   int
		single    int
	}{
		{5, 5, 5, 5},
		{11, 11, 11, 2},
		{22, 22, 22, 4},
		{33, 6, 33, 6},
		{1995, 6, 6, 6},
		{29, 11, 11, 2},
	}
	for _, tc := range cases {
		if got := reduceNumber(tc.in); got != tc.keep11_22 {
			t.Errorf("reduceNumber(%d) = %d, want %d", tc.in, got, tc.keep11_22)
		}
		if got := reduceWithMasters(tc.in); got != tc.masters {
			t.Errorf("reduceWithMasters(%d) = %d, want %d", tc.in, got, tc.masters)
		}
		if got := reduceToSingle(tc.in); got != tc.single {
			t.Errorf("reduceToSingle(%d) = %d, want %d", tc.in, got, tc.single)
		}
	}
}

func TestInvalidBirthdayRejected(t *testing.T) {
	if _, err := NewCalculator("1995-08-15", "Someone", ""); err == nil {
		t.Error("ISO date format must be rejected")
	}
	if _, err := NewCalculator("", "Someone", ""); err == nil {
		t.Error("empty birthday must be rejected")
	}
}

func TestYCountsAsVowelOnlyWithoutOtherVowels(t *testing.T) {
	if !isVowel('Y', "LY") {
		t.Error("Y in LY has no sibling vowel, should count as vowel")
	}
	if isVowel('Y', "DUY") {
		t.Error("Y in DUY sits next to U, should count as consonant")
	}
}

func TestAgeTCIMilestones(t *testing.T) {
	c, err := NewCalculator("02/02/1990", "Tran Binh", "01/01/2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	milestones := c.AgeTCI()
	if len(milestones) != 4 {
		t.Fatalf("expected 4 milestones, got %d", len(milestones))
	}
	for i := 1; i < 4; i++ {
		if milestones[i]-milestones[i-1] != 9 {
			t.Errorf("milestones must be 9 years apart, got %v", milestones)
		}
	}
}

func TestWMIAndSSIAgree(t *testing.T) {
	c, err := NewCalculator("15/08/1995", "Le Van Cuong", "01/06/2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.SSI(); got != 9-len(c.WMI()) {
		t.Errorf("SSI must equal 9 minus missing aspects, got %d with %d missing", got, len(c.WMI()))
	}
}
