// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Reference is a customer testimonial shown on the references page.
type Reference struct {
	ID           int64     `json:"id"`
	CompanyName  string    `json:"company_name"`
	ContactName  *string   `json:"contact_name,omitempty"`
	ContactTitle *string   `json:"contact_title,omitempty"`
	Testimonial  string    `json:"testimonial"`
	LogoPath     *string   `json:"logo_path,omitempty"`
	URL          *string   `json:"url,omitempty"`
	Featured     bool      `json:"featured"`
	IsActive     bool      `json:"is_active"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FAQ is a question/answer pair. SortOrder is rewritten in bulk when the
// list is reordered by drag and drop.
type FAQ struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  *string   `json:"category,omitempty"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Download is a document offered for download on the public site.
type Download struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	FilePath      string    `json:"file_path"`
	FileName      string    `json:"file_name"`
	FileSize      int64     `json:"file_size"`
	MimeType      string    `json:"mime_type"`
	IsActive      bool      `json:"is_active"`
	DownloadCount int64     `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone,omitempty"`
	Company    *string   `json:"company,omitempty"`
	Subject    *string   `json:"subject,omitempty"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	IsArchived bool      `json:"is_archived"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	UserAgent  *string   `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageFilter selects inbox views.
type MessageFilter struct {
	Unread   bool
	Archived bool
	Limit    int
	Offset   int
}
