package controllers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/internal/pkg/csvexport"
)

func (h *AdminController) HandleExportDonations(c *fiber.Ctx) error {
	donations, err := h.Repos.Donation.AllSuccess()
	if err != nil {
		return err
	}
	return sendReport(c, csvexport.Donations(donations))
}

func (h *AdminController) HandleExportPartners(c *fiber.Ctx) error {
	partners, err := h.Repos.Application.AllPartners()
	if err != nil {
		return err
	}
	return sendReport(c, csvexport.Partners(partners))
}

func (h *AdminController) HandleExportVolunteers(c *fiber.Ctx) error {
	volunteers, err := h.Repos.Application.AllVolunteers()
	if err != nil {
		return err
	}
	return sendReport(c, csvexport.Volunteers(volunteers))
}

func (h *AdminController) HandleExportMentorships(c *fiber.Ctx) error {
	apps, err := h.Repos.Application.AllMentorships()
	if err != nil {
		return err
	}
	return sendReport(c, csvexport.Mentorships(apps))
}

func sendReport(c *fiber.Ctx, report *csvexport.Report) error {
	var buf bytes.Buffer
	if err := report.Write(&buf); err != nil {
		return err
	}
	log.Infof("[Admin] export %s (%d rows)", report.Filename, len(report.Rows))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(report.Filename)
	return c.Send(buf.Bytes())
}
