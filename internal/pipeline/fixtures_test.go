package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const ageCSV = `age_group,type,injury_mechanism,number_est,rate_est
0-17,Emergency Department Visit,Motor Vehicle Crashes,47138,64.1
0-17,Emergency Department Visit,Unintentional Falls,397190,540.2
0-17,Hospitalizations,Unintentional Falls,6000,8.2
0-17,Deaths,Assault,NA,NA
75+,Emergency Department Visit,Unintentional Falls,600,100
75+,Deaths,Unintentional Falls,400,60
Total,Hospitalizations,Assault,1000,4
`

const yearCSV = `injury_mechanism,type,year,rate_est,number_est
Motor Vehicle Crashes,Emergency Department Visit,2006,130,390000
Unintentional Falls,Emergency Department Visit,2006,200,600000
Motor Vehicle Crashes,Deaths,2006,4,10000
Unintentional Falls,Emergency Department Visit,2014,300,900000
Assault,Hospitalizations,2014,NA,NA
Assault,Deaths,2014,1,100000
`

const militaryCSV = `service,component,severity,diagnosed,year
Army,Active,Mild,10000,2006
Army,Guard,Severe,500,2006
Navy,Active,Mild,3000,2007
Marines,Active,Moderate,4000,2007
Air Force,Reserve,Penetrating,NA,2008
Air Force,Active,Mild,2000,2014
`

// writeFixtures writes the three tables into a temp directory.
func writeFixtures(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"tbi_age.csv":      ageCSV,
		"tbi_year.csv":     yearCSV,
		"tbi_military.csv": militaryCSV,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// writeLargeFixtures writes tables with repeated rows for benchmarks.
func writeLargeFixtures(b *testing.B, repeat int) string {
	b.Helper()
	dir := b.TempDir()
	for name, body := range map[string]string{
		"tbi_age.csv":      ageCSV,
		"tbi_year.csv":     yearCSV,
		"tbi_military.csv": militaryCSV,
	} {
		header, rows, _ := strings.Cut(body, "\n")
		var sb strings.Builder
		sb.WriteString(header + "\n")
		for i := 0; i < repeat; i++ {
			sb.WriteString(rows)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sb.String()), 0o600); err != nil {
			b.Fatal(err)
		}
	}
	return dir
}
