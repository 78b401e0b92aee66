// Package tbi computes the deterministic behavioral index feature set used
// for prompt personalization. The numeric formulas are domain-specific and
// treated as opaque pure functions; given the same name and birthdate the
// output is always the same.
package tbi

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// letterValues maps uppercase letters, including Vietnamese diacritic
// variants, to their digit values.
var letterValues = map[rune]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8, 'I': 9,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'O': 6, 'P': 7, 'Q': 8, 'R': 9,
	'S': 1, 'T': 2, 'U': 3, 'V': 4, 'W': 5, 'X': 6, 'Y': 7, 'Z': 8,
	'Ă': 1, 'Â': 1, 'Ê': 5, 'Ô': 6, 'Ơ': 6, 'Đ': 4,
	'Á': 1, 'À': 1, 'Ả': 1, 'Ã': 1, 'Ạ': 1,
	'Ắ': 1, 'Ằ': 1, 'Ẳ': 1, 'Ẵ': 1, 'Ặ': 1,
	'Ấ': 1, 'Ầ': 1, 'Ẩ': 1, 'Ẫ': 1, 'Ậ': 1,
	'É': 5, 'È': 5, 'Ẻ': 5, 'Ẽ': 5, 'Ẹ': 5,
	'Ế': 5, 'Ề': 5, 'Ể': 5, 'Ễ': 5, 'Ệ': 5,
	'Í': 9, 'Ì': 9, 'Ỉ': 9, 'Ĩ': 9, 'Ị': 9,
	'Ó': 6, 'Ò': 6, 'Ỏ': 6, 'Õ': 6, 'Ọ': 6,
	'Ố': 6, 'Ồ': 6, 'Ổ': 6, 'Ỗ': 6, 'Ộ': 6,
	'Ớ': 6, 'Ờ': 6, 'Ở': 6, 'Ỡ': 6, 'Ợ': 6,
	'Ú': 3, 'Ù': 3, 'Ủ': 3, 'Ũ': 3, 'Ụ': 3,
	'Ư': 3, 'Ứ': 3, 'Ừ': 3, 'Ử': 3, 'Ữ': 3, 'Ự': 3,
	'Ý': 7, 'Ỳ': 7, 'Ỷ': 7, 'Ỹ': 7, 'Ỵ': 7,
}

var masterNumbers = map[int]bool{11: true, 22: true, 33: true}

var karmicNumbers = map[int]bool{13: true, 14: true, 16: true, 19: true}

// plainVowels are vowels in any letter case, excluding Y which has
// positional rules.
var plainVowels = map[rune]bool{}

func init() {
	for _, r := range "AEIOUĂÂÊÔƠƯÁÀẢÃẠẮẰẲẴẶẤẦẨẪẬÉÈẺẼẸẾỀỂỄỆÍÌỈĨỊÓÒỎÕỌỐỒỔỖỘỚỜỞỠỢÚÙỦŨỤỨỪỬỮỰ" {
		plainVowels[r] = true
	}
}

func isYLetter(r rune) bool {
	switch r {
	case 'Y', 'Ý', 'Ỳ', 'Ỷ', 'Ỹ', 'Ỵ':
		return true
	}
	return false
}

// Calculator derives indicator values from a full name and a birthdate in
// dd/mm/yyyy form.
type Calculator struct {
	name        string
	nameParts   []string
	nameNumbers []int

	dob     time.Time
	current time.Time

	dayR, monthR, yearR                      int
	dayRNoMaster, monthRNoMaster, yearRNoMaster int
}

// NewCalculator parses inputs and precomputes the reduced date components.
// currentDate may be empty, in which case the Vietnam-local current day is
// used (alignment signals depend on it; everything else is date-of-birth
// and name only).
func NewCalculator(dob, name, currentDate string) (*Calculator, error) {
	dobTime, err := time.Parse("02/01/2006", strings.TrimSpace(dob))
	if err != nil {
		return nil, fmt.Errorf("invalid birthday format, use dd/mm/yyyy: %w", err)
	}

	var current time.Time
	if strings.TrimSpace(currentDate) == "" {
		current = nowVietnam()
	} else {
		current, err = time.Parse("02/01/2006", strings.TrimSpace(currentDate))
		if err != nil {
			current = nowVietnam()
		}
	}

	upper := strings.ToUpper(strings.TrimSpace(name))
	c := &Calculator{
		name:    upper,
		dob:     dobTime,
		current: current,
	}
	c.nameParts = strings.Fields(upper)
	for _, r := range strings.Join(c.nameParts, "") {
		if v, ok := letterValues[r]; ok {
			c.nameNumbers = append(c.nameNumbers, v)
		}
	}

	c.dayR = reduceWithMasters(c.dob.Day())
	c.monthR = reduceWithMasters(int(c.dob.Month()))
	c.yearR = reduceWithMasters(c.dob.Year())
	c.dayRNoMaster = reduceToSingle(c.dob.Day())
	c.monthRNoMaster = reduceToSingle(int(c.dob.Month()))
	c.yearRNoMaster = reduceToSingle(c.dob.Year())

	return c, nil
}

func nowVietnam() time.Time {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		return time.Now()
	}
	return time.Now().In(loc)
}

func digitSum(n int) int {
	s := 0
	for n > 0 {
		s += n % 10
		n /= 10
	}
	return s
}

// reduceNumber keeps master numbers 11 and 22.
func reduceNumber(n int) int {
	for n > 9 && n != 11 && n != 22 {
		n = digitSum(n)
	}
	return n
}

// reduceWithMasters keeps 11, 22 and 33.
func reduceWithMasters(n int) int {
	for n > 9 && !masterNumbers[n] {
		n = digitSum(n)
	}
	return n
}

// reduceToSingle always lands in 1..9.
func reduceToSingle(n int) int {
	for n > 9 {
		n = digitSum(n)
	}
	return n
}

// isVowel applies the Y rule: Y counts as a vowel only when the word has no
// other vowel.
func isVowel(r rune, word string) bool {
	if plainVowels[r] {
		return true
	}
	if isYLetter(r) {
		others := 0
		for _, c := range word {
			if !isYLetter(c) && plainVowels[c] {
				others++
			}
		}
		return others == 0
	}
	return false
}

// PPA is the path potential alignment from the reduced date components.
func (c *Calculator) PPA() int {
	return reduceWithMasters(c.dayR + c.monthR + c.yearR)
}

// SPI is the skill potential index from the full name letter sum.
func (c *Calculator) SPI() int {
	return reduceWithMasters(sum(c.nameNumbers))
}

// CMI sums the first letter of each name part, always reduced to one digit.
func (c *Calculator) CMI() int {
	if len(c.nameParts) < 1 {
		return 0
	}
	total := 0
	for _, part := range c.nameParts {
		for _, r := range part {
			total += letterValues[r]
			break
		}
	}
	return reduceToSingle(total)
}

// EDI aggregates per-part vowel sums.
func (c *Calculator) EDI() int {
	total := 0
	for _, part := range c.nameParts {
		partSum := 0
		for _, r := range part {
			if isVowel(r, part) {
				partSum += letterValues[r]
			}
		}
		total += reduceWithMasters(partSum)
	}
	return reduceWithMasters(total)
}

// MPI aggregates per-part consonant sums.
func (c *Calculator) MPI() int {
	total := 0
	for _, part := range c.nameParts {
		partSum := 0
		for _, r := range part {
			if !isVowel(r, part) {
				partSum += letterValues[r]
			}
		}
		total += reduceWithMasters(partSum)
	}
	return reduceWithMasters(total)
}

// NEI reduces the birth day keeping masters.
func (c *Calculator) NEI() int {
	return reduceWithMasters(c.dob.Day())
}

// WMI lists digits 1..9 absent from the name numbers.
func (c *Calculator) WMI() []int {
	present := map[int]bool{}
	for _, num := range c.nameNumbers {
		for num > 0 {
			present[num%10] = true
			num /= 10
		}
	}
	var missing []int
	for d := 1; d <= 9; d++ {
		if !present[d] {
			missing = append(missing, d)
		}
	}
	return missing
}

// SSI is 9 minus the number of missing aspects.
func (c *Calculator) SSI() int {
	return 9 - len(c.WMI())
}

// RI combines PPA and SPI.
func (c *Calculator) RI() int {
	return reduceWithMasters(c.PPA() + c.SPI())
}

// BLI reports whether the birthdate or name sum hits a karmic number.
func (c *Calculator) BLI() string {
	dobSum := digitSum(c.dob.Day()) + digitSum(int(c.dob.Month())) + digitSum(c.dob.Year())
	if karmicNumbers[dobSum] || karmicNumbers[sum(c.nameNumbers)] {
		return "Có Karmic Debt"
	}
	return "Không có Karmic Debt"
}

// SAI returns the most frequent digits across the name numbers.
func (c *Calculator) SAI() []int {
	counts := map[int]int{}
	for _, num := range c.nameNumbers {
		for num > 0 {
			counts[num%10]++
			num /= 10
		}
	}
	if len(counts) == 0 {
		return nil
	}
	maxFreq := 0
	for _, f := range counts {
		if f > maxFreq {
			maxFreq = f
		}
	}
	var top []int
	for d, f := range counts {
		if f == maxFreq {
			top = append(top, d)
		}
	}
	sort.Ints(top)
	return top
}

// Cohort labels the birth-year generation.
func (c *Calculator) Cohort() string {
	year := c.dob.Year()
	switch {
	case year >= 1981 && year <= 1996:
		return "Gen Y (Millennials) - Cân bằng công việc-cuộc sống, công nghệ"
	case year >= 1997 && year <= 2012:
		return "Gen Z - Công nghệ số, đa dạng, thay đổi nhanh"
	default:
		return "Khác"
	}
}

// PPAI is the reduced distance between PPA and SPI.
func (c *Calculator) PPAI() int {
	return reduceNumber(abs(c.PPA() - c.SPI()))
}

// IOCI compares the soul and persona values on a single-digit scale.
func (c *Calculator) IOCI() int {
	soul := c.EDI()
	if masterNumbers[soul] {
		soul = digitSum(soul)
	}
	return reduceToSingle(abs(soul - c.MPI()))
}

// TCI computes the four trading cycle phases.
func (c *Calculator) TCI() map[string]int {
	dayM := reduceNumber(c.dob.Day())
	monthM := reduceNumber(int(c.dob.Month()))
	yearM := reduceNumber(c.dob.Year())

	tci1 := reduceNumber(monthM + dayM)
	tci2 := reduceNumber(dayM + yearM)
	tci3 := reduceNumber(tci1 + tci2)
	tci4 := reduceNumber(monthM + yearM)

	return map[string]int{"tci_1": tci1, "tci_2": tci2, "tci_3": tci3, "tci_4": tci4}
}

// CII reduces the year digit sum keeping masters.
func (c *Calculator) CII() int {
	return reduceWithMasters(digitSum(c.dob.Year()))
}

// TAI reduces the day and month digit sums to one digit.
func (c *Calculator) TAI() int {
	return reduceToSingle(digitSum(c.dob.Day()) + digitSum(int(c.dob.Month())))
}

// BCI computes the four challenge distances from the single-digit date
// components.
func (c *Calculator) BCI() map[string]int {
	bci1 := abs(c.dayRNoMaster - c.monthRNoMaster)
	bci2 := abs(c.dayRNoMaster - c.yearRNoMaster)
	bci3 := abs(bci1 - bci2)
	bci4 := abs(c.monthRNoMaster - c.yearRNoMaster)
	return map[string]int{"bci_1": bci1, "bci_2": bci2, "bci_3": bci3, "bci_4": bci4}
}

// ARI combines the birth day with the given name (last part) letter sum.
func (c *Calculator) ARI() int {
	if len(c.nameParts) == 0 {
		return 0
	}
	given := c.nameParts[len(c.nameParts)-1]
	givenSum := 0
	for _, r := range given {
		givenSum += letterValues[r]
	}
	return reduceWithMasters(c.dob.Day() + givenSum)
}

// AgeTCI returns the four age milestones derived from PPA.
func (c *Calculator) AgeTCI() []int {
	lifePath := c.PPA()
	start := 36 - lifePath
	if masterNumbers[lifePath] {
		start = 32
	}
	return []int{start, start + 9, start + 18, start + 27}
}

// AlignmentSignals derives the year/month/day momentum values relative to
// the calculator's current date.
func (c *Calculator) AlignmentSignals() map[string]int {
	currentYear := c.current.Year()
	currentMonth := int(c.current.Month())
	currentDay := c.current.Day()

	personalYear := c.dob.Day() + int(c.dob.Month()) + currentYear
	if currentMonth < int(c.dob.Month()) ||
		(currentMonth == int(c.dob.Month()) && currentDay < c.dob.Day()) {
		personalYear--
	}
	personalYear = reduceToSingle(personalYear)

	personalMonth := reduceToSingle(currentMonth + personalYear)
	personalDay := reduceToSingle(currentDay + currentMonth + personalYear)

	return map[string]int{"ami": personalYear, "mri": personalMonth, "dai": personalDay}
}

// Indicators returns the full feature set.
func (c *Calculator) Indicators() map[string]interface{} {
	return map[string]interface{}{
		"day_of_birth": c.dob.Format("02/01/2006"),
		"current_date": c.current.Format("02/01/2006"),
		"edi":          c.EDI(),
		"ppai":         c.PPAI(),
		"spi":          c.SPI(),
		"cmi":          c.CMI(),
		"mpi":          c.MPI(),
		"ri":           c.RI(),
		"ioci":         c.IOCI(),
		"tai":          c.TAI(),
		"ppa":          c.PPA(),
		"wmi":          c.WMI(),
		"ssi":          c.SSI(),
		"sai":          c.SAI(),
		"bci":          c.BCI(),
		"nei":          c.NEI(),
		"bli":          c.BLI(),
		"ari":          c.ARI(),
		"tci":          c.TCI(),
		"cii":          c.CII(),
		"alignment_signals": c.AlignmentSignals(),
		"age_tci":           c.AgeTCI(),
	}
}

func sum(nums []int) int {
	total := 0
	for _, n := range nums {
		total += n
	}
	return total
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
