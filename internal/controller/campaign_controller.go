// internal/controller/campaign_controller.go
package controller

import (
    "encoding/json"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    "github.com/o4villegas/lead-fuego-sub001/internal/service"
)

type CampaignController struct {
    CampaignService *service.CampaignService
    Processor       *service.Processor
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Name            string              `json:"name"`
        SkipFailedSteps bool                `json:"skip_failed_steps"`
        ConversionEvent string              `json:"conversion_event"`
        Steps           []service.StepInput `json:"steps"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    campaign, steps, err := c.CampaignService.CreateCampaign(body.Name, body.SkipFailedSteps, body.ConversionEvent, body.Steps)
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "campaign": campaign,
        "steps":    steps,
    })
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    // Parse query parameters
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

    var active *bool
    if raw := r.URL.Query().Get("active"); raw != "" {
        parsed, err := strconv.ParseBool(raw)
        if err != nil {
            http.Error(w, "invalid active filter", http.StatusBadRequest)
            return
        }
        active = &parsed
    }

    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }

    campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, active)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "data":       campaigns,
        "pagination": pagination,
    })
}

// PauseCampaign and ResumeCampaign flip the campaign's active flag. The
// processor stops claiming a paused campaign's messages on its next run.
func (c *CampaignController) PauseCampaign(w http.ResponseWriter, r *http.Request) {
    c.setActive(w, r, false)
}

func (c *CampaignController) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
    c.setActive(w, r, true)
}

func (c *CampaignController) setActive(w http.ResponseWriter, r *http.Request, active bool) {
    idStr := chi.URLParam(r, "id")
    id, err := strconv.Atoi(idStr)
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    if err := c.CampaignService.SetActive(id, active); err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "campaign_id": id,
        "active":      active,
    })
}

// CaptureLead is the trigger endpoint: a captured lead enters the
// campaign and the worker starts its journey off the queue.
func (c *CampaignController) CaptureLead(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    campaignID, err := strconv.Atoi(idStr)
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    var body struct {
        LeadID int `json:"lead_id"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    event, err := c.CampaignService.CaptureLead(body.LeadID, campaignID)
    if err != nil {
        http.Error(w, err.Error(), http.StatusUnprocessableEntity)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusAccepted)
    json.NewEncoder(w).Encode(event)
}

// RunProcessor triggers one processor run by hand and returns its
// summary. The worker runs the same job on a timer; overlap is safe.
func (c *CampaignController) RunProcessor(w http.ResponseWriter, r *http.Request) {
    summary, err := c.Processor.Run(r.Context())
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(summary)
}
