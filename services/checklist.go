package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func itemsOrdered(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }

func CreateTemplate(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, req models.CreateTemplateRequest) (*models.ChecklistTemplate, error) {
	tmpl := models.ChecklistTemplate{OwnerID: ownerID, Name: strings.TrimSpace(req.Name)}
	for i, label := range req.Items {
		tmpl.Items = append(tmpl.Items, models.TemplateItem{Label: strings.TrimSpace(label), Position: i})
	}
	if err := db.WithContext(ctx).Create(&tmpl).Error; err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return &tmpl, nil
}

func ListTemplates(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) ([]models.ChecklistTemplate, error) {
	templates := []models.ChecklistTemplate{}
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Preload("Items", itemsOrdered).
		Order("name ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// CreateChecklist copies a template into the trip, or builds an ad hoc list.
func CreateChecklist(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID, req models.CreateChecklistRequest) (*models.Checklist, error) {
	if _, err := RequireMember(ctx, db, tripID, userID); err != nil {
		return nil, err
	}

	list := models.Checklist{TripID: tripID, Name: strings.TrimSpace(req.Name), CreatedBy: userID}
	labels := req.Items

	if req.TemplateID != "" {
		templateID, err := uuid.Parse(req.TemplateID)
		if err != nil {
			return nil, utils.Validationf("invalid template_id")
		}
		var tmpl models.ChecklistTemplate
		if err := db.WithContext(ctx).Preload("Items", itemsOrdered).First(&tmpl, "id = ?", templateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NewNotFound("template", templateID.String())
			}
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		if tmpl.OwnerID != userID {
			return nil, fmt.Errorf("%w: template belongs to another user", utils.ErrForbidden)
		}
		list.TemplateID = &tmpl.ID
		if list.Name == "" {
			list.Name = tmpl.Name
		}
		labels = labels[:0:0]
		for _, item := range tmpl.Items {
			labels = append(labels, item.Label)
		}
	}

	if list.Name == "" {
		return nil, utils.Validationf("name is required")
	}
	if len(labels) == 0 {
		return nil, utils.Validationf("a checklist needs at least one item")
	}
	for i, label := range labels {
		list.Items = append(list.Items, models.ChecklistItem{Label: strings.TrimSpace(label), Position: i})
	}

	if err := db.WithContext(ctx).Create(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to create checklist: %w", err)
	}
	LogActivity(ctx, db, tripID, userID, models.ActivityChecklistAdded, list.ID, fmt.Sprintf("added checklist \"%s\"", list.Name))
	return &list, nil
}

func ListChecklists(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID) ([]models.Checklist, error) {
	if _, err := RequireMember(ctx, db, tripID, userID); err != nil {
		return nil, err
	}
	lists := []models.Checklist{}
	err := db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Preload("Items", itemsOrdered).
		Order("created_at ASC").
		Find(&lists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}
	return lists, nil
}

// ToggleItem flips an item's done flag on behalf of any trip member.
func ToggleItem(ctx context.Context, db *gorm.DB, itemID, userID uuid.UUID) (*models.ChecklistItem, error) {
	var item models.ChecklistItem
	if err := db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("checklist item", itemID.String())
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	var list models.Checklist
	if err := db.WithContext(ctx).First(&list, "id = ?", item.ChecklistID).Error; err != nil {
		return nil, fmt.Errorf("failed to load checklist: %w", err)
	}
	if _, err := RequireMember(ctx, db, list.TripID, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"done": !item.Done, "done_by": nil, "done_at": nil}
	if !item.Done {
		now := time.Now().UTC()
		updates["done_by"] = userID
		updates["done_at"] = now
		item.DoneBy, item.DoneAt = &userID, &now
	} else {
		item.DoneBy, item.DoneAt = nil, nil
	}
	item.Done = !item.Done

	if err := db.WithContext(ctx).Model(&models.ChecklistItem{}).Where("id = ?", itemID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return &item, nil
}
