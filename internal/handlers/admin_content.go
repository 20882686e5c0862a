// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"corpsite/internal/cache"
	"corpsite/internal/models"
	"corpsite/internal/ordering"
	"corpsite/internal/sanitize"
)

type reorderInput struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

// reorder applies a drag-and-drop order through ordering.Reorder. When the
// batch fails the reloaded list is returned with 409 so the client can redraw
// what the server holds.
func reorder[T any](w http.ResponseWriter, r *http.Request, op string, repo ordering.Repository[T]) {
	var in reorderInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, op, err)
		return
	}
	items, err := ordering.Reorder(r.Context(), repo, in.IDs)
	if errors.Is(err, ordering.ErrResync) && items != nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "the new order could not be saved, the list was reloaded",
			"items": items,
		})
		return
	}
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, len(items)))
}

// --- Categories ---

type categoryInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,max=100,slug"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
}

func (in *categoryInput) apply(c *models.Category) error {
	c.Name = strings.TrimSpace(in.Name)
	s, err := deriveSlug(in.Slug, c.Name)
	if err != nil {
		return err
	}
	c.Slug = s
	c.Description = optional(in.Description)
	c.Color = optional(in.Color)
	return nil
}

// CategoriesList returns every category in display order with post counts.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	cats, err := a.Categories.List(r.Context())
	if err != nil {
		fail(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(cats, len(cats)))
}

// CategoriesCreate appends a category.
func (a *Admin) CategoriesCreate(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "create category", err)
		return
	}
	var c models.Category
	if err := in.apply(&c); err != nil {
		fail(w, r, "create category", err)
		return
	}
	created, err := a.Categories.Create(r.Context(), &c)
	if err != nil {
		fail(w, r, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// CategoriesUpdate changes a category's name, slug, description and color.
func (a *Admin) CategoriesUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "update category", err)
		return
	}
	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update category", err)
		return
	}
	c := models.Category{ID: id}
	if err := in.apply(&c); err != nil {
		fail(w, r, "update category", err)
		return
	}
	if err := a.Categories.Update(r.Context(), &c); err != nil {
		fail(w, r, "update category", err)
		return
	}

	updated, err := a.Categories.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// CategoriesDelete removes a category. Posts lose the membership only.
func (a *Admin) CategoriesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "delete category", err)
		return
	}
	if err := a.Categories.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CategoriesReorder saves a new display order.
func (a *Admin) CategoriesReorder(w http.ResponseWriter, r *http.Request) {
	reorder[models.Category](w, r, "reorder categories", a.Categories)
}

// --- Tags ---

type tagInput struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=100,slug"`
}

// TagsList returns every tag with its post count.
func (a *Admin) TagsList(w http.ResponseWriter, r *http.Request) {
	tags, err := a.Tags.List(r.Context())
	if err != nil {
		fail(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(tags, len(tags)))
}

// TagsCreate adds a tag.
func (a *Admin) TagsCreate(w http.ResponseWriter, r *http.Request) {
	var in tagInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "create tag", err)
		return
	}
	name := strings.TrimSpace(in.Name)
	s, err := deriveSlug(in.Slug, name)
	if err != nil {
		fail(w, r, "create tag", err)
		return
	}
	tag, err := a.Tags.Create(r.Context(), name, s)
	if err != nil {
		fail(w, r, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// TagsUpdate renames a tag.
func (a *Admin) TagsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "update tag", err)
		return
	}
	var in tagInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update tag", err)
		return
	}
	name := strings.TrimSpace(in.Name)
	s, err := deriveSlug(in.Slug, name)
	if err != nil {
		fail(w, r, "update tag", err)
		return
	}
	if err := a.Tags.Update(r.Context(), id, name, s); err != nil {
		fail(w, r, "update tag", err)
		return
	}

	tag, err := a.Tags.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "update tag", err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// TagsDelete removes a tag from every post and deletes it.
func (a *Admin) TagsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "delete tag", err)
		return
	}
	if err := a.Tags.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- FAQs ---

type faqInput struct {
	Question string  `json:"question" validate:"required,max=500"`
	Answer   string  `json:"answer" validate:"required,max=20000"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	IsActive *bool   `json:"is_active"`
}

func (in *faqInput) apply(f *models.FAQ) {
	f.Question = sanitize.Text(strings.TrimSpace(in.Question))
	f.Answer = sanitize.HTML(in.Answer)
	f.Category = optional(in.Category)
	f.IsActive = in.IsActive == nil || *in.IsActive
}

// FAQsList returns every FAQ, active or not, in display order.
func (a *Admin) FAQsList(w http.ResponseWriter, r *http.Request) {
	faqs, err := a.FAQs.List(r.Context())
	if err != nil {
		fail(w, r, "list faqs", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(faqs, len(faqs)))
}

// FAQsCreate appends an FAQ. New FAQs are active unless is_active is false.
func (a *Admin) FAQsCreate(w http.ResponseWriter, r *http.Request) {
	var in faqInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "create faq", err)
		return
	}
	var f models.FAQ
	in.apply(&f)
	created, err := a.FAQs.Create(r.Context(), &f)
	if err != nil {
		fail(w, r, "create faq", err)
		return
	}
	a.Cache.Invalidate(r.Context(), cache.KeyFAQs)
	writeJSON(w, http.StatusCreated, created)
}

// FAQsUpdate changes an FAQ's content and active flag.
func (a *Admin) FAQsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "update faq", err)
		return
	}
	var in faqInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update faq", err)
		return
	}
	f := models.FAQ{ID: id}
	in.apply(&f)
	if err := a.FAQs.Update(r.Context(), &f); err != nil {
		fail(w, r, "update faq", err)
		return
	}
	a.Cache.Invalidate(r.Context(), cache.KeyFAQs)

	updated, err := a.FAQs.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "update faq", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// FAQsDelete removes an FAQ.
func (a *Admin) FAQsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "delete faq", err)
		return
	}
	if err := a.FAQs.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete faq", err)
		return
	}
	a.Cache.Invalidate(r.Context(), cache.KeyFAQs)
	w.WriteHeader(http.StatusNoContent)
}

// FAQsReorder saves the order produced by a drag-and-drop interaction.
func (a *Admin) FAQsReorder(w http.ResponseWriter, r *http.Request) {
	reorder[models.FAQ](w, r, "reorder faqs", a.FAQs)
	a.Cache.Invalidate(r.Context(), cache.KeyFAQs)
}

// --- References ---

type referenceInput struct {
	CompanyName  string  `json:"company_name" validate:"required,max=200"`
	ContactName  *string `json:"contact_name" validate:"omitempty,max=200"`
	ContactTitle *string `json:"contact_title" validate:"omitempty,max=200"`
	Testimonial  string  `json:"testimonial" validate:"required,max=5000"`
	LogoPath     *string `json:"logo_path" validate:"omitempty,max=500"`
	URL          *string `json:"url" validate:"omitempty,http_url,max=500"`
	Featured     bool    `json:"featured"`
	IsActive     *bool   `json:"is_active"`
}

func (in *referenceInput) apply(ref *models.Reference) {
	ref.CompanyName = sanitize.Text(strings.TrimSpace(in.CompanyName))
	ref.ContactName = optional(in.ContactName)
	ref.ContactTitle = optional(in.ContactTitle)
	ref.Testimonial = sanitize.HTML(in.Testimonial)
	ref.LogoPath = optional(in.LogoPath)
	ref.URL = optional(in.URL)
	ref.Featured = in.Featured
	ref.IsActive = in.IsActive == nil || *in.IsActive
}

// ReferencesList returns every reference in display order.
func (a *Admin) ReferencesList(w http.ResponseWriter, r *http.Request) {
	refs, err := a.References.List(r.Context())
	if err != nil {
		fail(w, r, "list references", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(refs, len(refs)))
}

// ReferencesCreate appends a reference.
func (a *Admin) ReferencesCreate(w http.ResponseWriter, r *http.Request) {
	var in referenceInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "create reference", err)
		return
	}
	var ref models.Reference
	in.apply(&ref)
	created, err := a.References.Create(r.Context(), &ref)
	if err != nil {
		fail(w, r, "create reference", err)
		return
	}
	a.Cache.Invalidate(r.Context(), cache.KeyReferences)
	writeJSON(w, http.StatusCreated, created)
}

// ReferencesUpdate changes a reference.
func (a *Admin) ReferencesUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "update reference", err)
		return
	}
	var in referenceInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update reference", err)
		return
	}
	ref := models.Reference{ID: id}
	in.apply(&ref)
	if err := a.References.Update(r.Context(), &ref); err != nil {
		fail(w, r, "update reference", err)
		return
	}
	a.Cache.Invalidate(r.Context(), cache.KeyReferences)

	updated, err := a.References.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "update reference", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ReferencesDelete removes a reference.
func (a *Admin) ReferencesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "delete reference", err)
		return
	}
	if err := a.References.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete reference", err)
		return
	}
	a.Cache.Invalidate(r.Context(), cache.KeyReferences)
	w.WriteHeader(http.StatusNoContent)
}

// ReferencesReorder saves a new display order.
func (a *Admin) ReferencesReorder(w http.ResponseWriter, r *http.Request) {
	reorder[models.Reference](w, r, "reorder references", a.References)
	a.Cache.Invalidate(r.Context(), cache.KeyReferences)
}
