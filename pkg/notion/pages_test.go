package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) FindLeadByName(ctx context.Context, businessName string) (*notionapi.Page, error) {
	args := m.Called(ctx, businessName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *MockClient) CreateLead(ctx context.Context, lead LeadPage) (*notionapi.Page, error) {
	args := m.Called(ctx, lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *MockClient) UpdateLead(ctx context.Context, pageID string, lead LeadPage) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

var _ Client = (*MockClient)(nil)

func TestBuildLeadProperties(t *testing.T) {
	props := BuildLeadProperties(LeadPage{
		BusinessName: "ABC Plumbing",
		City:         "Springfield",
		Website:      "https://abcplumbing.example.com",
		Phone:        "(217) 555-0134",
		Email:        "info@abcplumbing.example.com",
		Score:        72.5,
		Tier:         "A",
		Notes:        []string{"via yelp", "email verified"},
	})

	title := props["Name"].(notionapi.TitleProperty)
	require.Len(t, title.Title, 1)
	assert.Equal(t, "ABC Plumbing", title.Title[0].Text.Content)
	assert.InDelta(t, 72.5, props["Score"].(notionapi.NumberProperty).Number, 0.001)
	assert.Equal(t, "A", props["Tier"].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "via yelp; email verified", props["Notes"].(notionapi.RichTextProperty).RichText[0].Text.Content)
}

func TestBuildLeadProperties_OmitsEmptyFields(t *testing.T) {
	props := BuildLeadProperties(LeadPage{BusinessName: "No Website LLC", Tier: "C"})

	assert.NotContains(t, props, "Website")
	assert.NotContains(t, props, "Email")
	assert.NotContains(t, props, "Phone")
	assert.NotContains(t, props, "Notes")
}

func TestUpsertLead_CreatesWhenMissing(t *testing.T) {
	m := &MockClient{}
	m.On("FindLeadByName", mock.Anything, "ABC Plumbing").Return(nil, nil)
	m.On("CreateLead", mock.Anything, mock.MatchedBy(func(lead LeadPage) bool {
		return lead.BusinessName == "ABC Plumbing"
	})).Return(&notionapi.Page{ID: "page-1"}, nil)

	page, err := UpsertLead(context.Background(), m, LeadPage{BusinessName: "ABC Plumbing", Tier: "A"})

	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("page-1"), page.ID)
	m.AssertExpectations(t)
}

func TestUpsertLead_UpdatesWhenPresent(t *testing.T) {
	m := &MockClient{}
	m.On("FindLeadByName", mock.Anything, "ABC Plumbing").
		Return(&notionapi.Page{ID: "page-9"}, nil)
	m.On("UpdateLead", mock.Anything, "page-9", mock.Anything).
		Return(&notionapi.Page{ID: "page-9"}, nil)

	page, err := UpsertLead(context.Background(), m, LeadPage{BusinessName: "ABC Plumbing", Tier: "B"})

	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("page-9"), page.ID)
	m.AssertExpectations(t)
}
