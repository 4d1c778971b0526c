package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/service"
)

// CampaignHandler serves personalized offers and operator campaign
// management.
type CampaignHandler struct {
	Campaigns   *service.CampaignService
	Eligibility *service.EligibilityService
}

func NewCampaignHandler(campaigns *service.CampaignService, eligibility *service.EligibilityService) *CampaignHandler {
	return &CampaignHandler{Campaigns: campaigns, Eligibility: eligibility}
}

type campaignReq struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Status         string   `json:"status"`
	Target         string   `json:"target"`
	Discount       string   `json:"discount"`
	EndDate        string   `json:"endDate"`
	StationID      *uint64  `json:"stationId"`
	CoinReward     *int64   `json:"coinReward"`
	TargetBadgeIDs []uint64 `json:"targetBadgeIds"`
}

func (r campaignReq) input() service.CampaignInput {
	return service.CampaignInput{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Target:         r.Target,
		Discount:       r.Discount,
		EndDate:        r.EndDate,
		StationID:      r.StationID,
		CoinReward:     r.CoinReward,
		TargetBadgeIDs: r.TargetBadgeIDs,
	}
}

type offerStation struct {
	ID   uint64  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type offerView struct {
	ID            uint64        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Discount      string        `json:"discount"`
	CoinReward    int64         `json:"coinReward"`
	EndDate       *time.Time    `json:"endDate"`
	MatchedBadges []badgeView   `json:"matchedBadges"`
	Station       *offerStation `json:"station"`
}

// ForUser lists the campaigns visible to the caller.
// GET /v1/campaigns/for-user?operatorId=
func (h *CampaignHandler) ForUser(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	var scope *uint64
	if v := c.QueryParam("operatorId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return badRequest(c, "operatorId must be a positive integer")
		}
		scope = &id
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Eligibility.CampaignsForUser(ctx, sess, scope)
	if err != nil {
		return respondError(c, err)
	}
	offers := make([]offerView, 0, len(res.Campaigns))
	for _, pc := range res.Campaigns {
		o := offerView{
			ID:            pc.Campaign.ID,
			Title:         pc.Campaign.Title,
			Description:   pc.Campaign.Description,
			Discount:      pc.Campaign.Discount,
			CoinReward:    pc.Campaign.CoinReward,
			EndDate:       pc.Campaign.EndDate,
			MatchedBadges: toBadgeViews(pc.MatchedBadges),
		}
		if st := pc.Station; st != nil {
			o.Station = &offerStation{ID: st.ID, Name: st.Name, Lat: st.Lat, Lng: st.Lng}
		}
		offers = append(offers, o)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"campaigns":  offers,
		"userBadges": toBadgeViews(res.UserBadges),
	})
}

// List returns the operator's campaigns. GET /v1/operator/campaigns
func (h *CampaignHandler) List(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Campaigns.List(ctx, sess)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]campaignView, 0, len(list))
	for i := range list {
		out = append(out, toCampaignView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "campaigns": out})
}

// Get returns one of the operator's campaigns. GET /v1/operator/campaigns/:id
func (h *CampaignHandler) Get(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	camp, err := h.Campaigns.Get(ctx, sess, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "campaign": toCampaignView(camp)})
}

// Create adds a campaign. POST /v1/operator/campaigns
func (h *CampaignHandler) Create(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	var req campaignReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	camp, err := h.Campaigns.Create(ctx, sess, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "campaign": toCampaignView(camp)})
}

// Update replaces a campaign. PUT /v1/operator/campaigns/:id
func (h *CampaignHandler) Update(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}
	var req campaignReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	camp, err := h.Campaigns.Update(ctx, sess, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "campaign": toCampaignView(camp)})
}

// Delete removes a campaign. DELETE /v1/operator/campaigns/:id
func (h *CampaignHandler) Delete(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Campaigns.Delete(ctx, sess, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
