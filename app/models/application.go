package models

import (
	"time"
)

const (
	APPLICATION_STATUS_PENDING  = "Pending"
	APPLICATION_STATUS_APPROVED = "Approved"
	APPLICATION_STATUS_REJECTED = "Rejected"
	APPLICATION_STATUS_ARCHIVED = "Archived"

	MENTORSHIP_TRACK_YOUTH_SCHOOL = "youth_school"
	MENTORSHIP_TRACK_IDP          = "idp_reintegration"
)

type VolunteerApplication struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID" json:"user"`
	Phone         string    `gorm:"type:varchar(20)" json:"phone"`
	Country       string    `gorm:"type:varchar(50);not null" json:"country" validate:"required,max=50"`
	DateOfBirth   time.Time `gorm:"type:date;not null" json:"dob"`
	IsUnder18     bool      `gorm:"default:false" json:"is_under_18"`
	ParentConsent bool      `gorm:"default:false" json:"parent_consent"`
	Motivation    string    `gorm:"type:text" json:"motivation" validate:"required"`
	Skills        string    `gorm:"type:text" json:"skills" validate:"required"`
	Status        string    `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AgeGroup is the label used in exports.
func (v *VolunteerApplication) AgeGroup() string {
	if v.IsUnder18 {
		return "Under 18"
	}
	return "Adult"
}

type MentorshipApplication struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index" json:"user_id"`
	User               User      `gorm:"foreignKey:UserID" json:"user"`
	ProgramTrack       string    `gorm:"type:varchar(50);not null" json:"program_track" validate:"oneof=youth_school idp_reintegration"`
	ChildFirstName     string    `gorm:"type:varchar(50)" json:"child_first_name"`
	ChildLastName      string    `gorm:"type:varchar(50)" json:"child_last_name"`
	GuardianName       string    `gorm:"type:varchar(100)" json:"guardian_name"`
	GradeLevel         string    `gorm:"type:varchar(20)" json:"grade_level"`
	SchoolName         string    `gorm:"type:varchar(100)" json:"school_name"`
	ParentEmail        string    `gorm:"type:varchar(120)" json:"parent_email"`
	VocationalInterest string    `gorm:"type:varchar(100)" json:"vocational_interest"`
	BusinessIdea       string    `gorm:"type:text" json:"business_idea"`
	Goals              string    `gorm:"type:text" json:"goals"`
	Status             string    `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (m *MentorshipApplication) MenteeName() string {
	if m.ChildFirstName == "" {
		return ""
	}
	return m.ChildFirstName + " " + m.ChildLastName
}

type PartnerApplication struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	User            User      `gorm:"foreignKey:UserID" json:"user"`
	OrgName         string    `gorm:"type:varchar(150);not null" json:"org_name" validate:"required,max=150"`
	OrgType         string    `gorm:"type:varchar(50)" json:"org_type" validate:"required,max=50"`
	Website         string    `gorm:"type:varchar(200)" json:"website" validate:"omitempty,max=200"`
	PartnershipType string    `gorm:"type:varchar(50);not null" json:"partnership_type" validate:"required,max=50"`
	ProposalDetails string    `gorm:"type:text;not null" json:"proposal_details" validate:"required"`
	Status          string    `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}
