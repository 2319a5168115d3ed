// Package csvexport turns admin report rows into CSV downloads.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ourstoryourvoice/osov/app/models"
)

const dateLayout = "2006-01-02 15:04"

// Report is one downloadable table
type Report struct {
	Filename string
	Header   []string
	Rows     [][]string
}

// Write emits the header and every row, flushing once at the end.
func (r *Report) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(r.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// Donations expects Success donations newest first with User preloaded.
func Donations(donations []models.Donation) *Report {
	rows := make([][]string, 0, len(donations))
	for i := range donations {
		d := &donations[i]
		rows = append(rows, []string{
			d.CreatedAt.Format(dateLayout),
			d.DonorName(),
			d.DonorEmail(),
			fmt.Sprintf("%.2f", d.Amount),
			d.Currency,
			d.Frequency,
			d.Reference,
		})
	}
	return &Report{
		Filename: "osov_donations_report.csv",
		Header:   []string{"Date", "Donor Name", "Email", "Amount", "Currency", "Frequency", "Reference"},
		Rows:     rows,
	}
}

func Partners(partners []models.PartnerApplication) *Report {
	rows := make([][]string, 0, len(partners))
	for _, p := range partners {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.OrgName,
			p.User.FullName(),
			p.User.Email,
			p.OrgType,
			p.Website,
			p.Status,
			p.CreatedAt.Format("2006-01-02"),
		})
	}
	return &Report{
		Filename: "osov_partners_export.csv",
		Header:   []string{"ID", "Organization", "Representative", "Email", "Type", "Website", "Status", "Date Applied"},
		Rows:     rows,
	}
}

func Volunteers(volunteers []models.VolunteerApplication) *Report {
	rows := make([][]string, 0, len(volunteers))
	for i := range volunteers {
		v := &volunteers[i]
		rows = append(rows, []string{
			strconv.FormatUint(uint64(v.ID), 10),
			v.User.FullName(),
			v.User.Email,
			v.Phone,
			v.Country,
			v.AgeGroup(),
			v.Skills,
			v.Status,
			v.CreatedAt.Format("2006-01-02"),
		})
	}
	return &Report{
		Filename: "osov_volunteers_export.csv",
		Header:   []string{"ID", "Name", "Email", "Phone", "Country", "Age Group", "Skills", "Status", "Date Applied"},
		Rows:     rows,
	}
}

func Mentorships(apps []models.MentorshipApplication) *Report {
	rows := make([][]string, 0, len(apps))
	for i := range apps {
		m := &apps[i]
		rows = append(rows, []string{
			strconv.FormatUint(uint64(m.ID), 10),
			m.User.FullName(),
			m.User.Email,
			m.ProgramTrack,
			m.MenteeName(),
			m.GuardianName,
			m.SchoolName,
			m.VocationalInterest,
			m.Status,
			m.CreatedAt.Format("2006-01-02"),
		})
	}
	return &Report{
		Filename: "osov_mentorships_export.csv",
		Header:   []string{"ID", "Applicant", "Email", "Track", "Mentee", "Guardian", "School", "Vocational Interest", "Status", "Date Applied"},
		Rows:     rows,
	}
}
