package portfolio

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/internal/storage/models"
	"github.com/portfolio/backend/internal/storage/storagetest"
)

func newTestService(t *testing.T) (*Service, *storagetest.Failing) {
	t.Helper()
	store := storagetest.NewFailing(storagetest.NewSQLite(t))
	return NewService(store), store
}

func TestEmptySectionsRenderPlaceholders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	want := map[string]string{
		models.CollectionCompanies:      "No experience added yet.",
		models.CollectionProjects:       "No projects added yet.",
		models.CollectionSkills:         "No skills added yet.",
		models.CollectionDomains:        "No domains added yet. Add some in the admin dashboard!",
		models.CollectionTechnologies:   "No technologies added yet.",
		models.CollectionAchievements:   "No achievements yet",
		models.CollectionCertifications: "No certifications yet",
	}

	for _, name := range SectionNames {
		section, err := svc.Section(ctx, name)
		require.NoError(t, err, name)
		assert.True(t, section.Empty, name)
		assert.Equal(t, want[name], section.Placeholder, name)

		data, err := json.Marshal(section)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"items":[]`, name)
	}
}

func TestSectionReadFailureDegradesToEmpty(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRecord(ctx, models.CollectionSkills, []byte(`{"name":"Go","category":"lang","level":80}`))
	require.NoError(t, err)

	store.Fail("list:skills")
	section, err := svc.Section(ctx, models.CollectionSkills)
	require.NoError(t, err)
	assert.True(t, section.Empty)
	assert.Equal(t, "No skills added yet.", section.Placeholder)
}

func TestSectionUnknown(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Section(context.Background(), "profile")
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestAdminCRUD(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRecord(ctx, models.CollectionCompanies, []byte(`{"id":"ignored","name":"Acme","position":"Dev","startDate":"2023-01"}`))
	require.NoError(t, err)
	company, ok := created.(models.Company)
	require.True(t, ok)
	require.NotEmpty(t, company.ID)
	assert.NotEqual(t, "ignored", company.ID)
	assert.Equal(t, []string{}, company.Technologies)

	_, err = svc.UpdateRecord(ctx, models.CollectionCompanies, company.ID, []byte(`{"name":"Acme","position":"Lead","startDate":"2023-01","endDate":"2024-06"}`))
	require.NoError(t, err)

	section, err := svc.Section(ctx, models.CollectionCompanies)
	require.NoError(t, err)
	items := section.Items.([]models.Company)
	require.Len(t, items, 1)
	assert.Equal(t, "Lead", items[0].Position)
	assert.Equal(t, "2024-06", items[0].EndDate)

	require.NoError(t, svc.DeleteRecord(ctx, models.CollectionCompanies, company.ID))
	section, err = svc.Section(ctx, models.CollectionCompanies)
	require.NoError(t, err)
	assert.True(t, section.Empty)
}

func TestAdminErrors(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRecord(ctx, models.CollectionProjects, []byte(`{"title":`))
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = svc.UpdateRecord(ctx, models.CollectionProjects, "missing", []byte(`{"title":"x"}`))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.ListRecords(ctx, "secrets")
	assert.ErrorIs(t, err, ErrUnknownSection)

	store.Fail("add")
	_, err = svc.CreateRecord(ctx, models.CollectionProjects, []byte(`{"title":"x"}`))
	assert.ErrorIs(t, err, storagetest.ErrInjected)
}

func TestSkillDefaultsLevel(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.CreateRecord(context.Background(), models.CollectionSkills, []byte(`{"name":"Go","category":"lang"}`))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSkillLevel, created.(models.Skill).Level)
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"Go", "Rust", "SQL"}, SplitNames(" Go, Rust,, SQL ,"))
	assert.Empty(t, SplitNames(" , ,"))
}

func TestBulkAddSkills(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.BulkAddSkills(ctx, "Go,  Rust , ,SQL", "Programming", 70)
	require.NoError(t, err)
	require.Len(t, created, 3)

	section, err := svc.Section(ctx, models.CollectionSkills)
	require.NoError(t, err)
	skills := section.Items.([]models.Skill)
	require.Len(t, skills, 3)
	for i, name := range []string{"Go", "Rust", "SQL"} {
		assert.Equal(t, name, skills[i].Name)
		assert.Equal(t, "Programming", skills[i].Category)
		assert.Equal(t, 70, skills[i].Level)
	}
}

func TestBulkAddTechnologies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.BulkAddTechnologies(ctx, "Docker, Kubernetes", "DevOps", "Containers")
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Kubernetes", created[1].Name)
	assert.Equal(t, "Containers", created[1].Description)

	none, err := svc.BulkAddTechnologies(ctx, " , ", "DevOps", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProfileSingleton(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, ok := svc.Profile(ctx)
	assert.False(t, ok)

	_, err := svc.SaveProfile(ctx, models.Profile{Name: "Sam", Title: "Engineer"})
	require.NoError(t, err)
	_, err = svc.SaveProfile(ctx, models.Profile{Name: "Sam Lee", Title: "Engineer"})
	require.NoError(t, err)

	p, ok := svc.Profile(ctx)
	require.True(t, ok)
	assert.Equal(t, "Sam Lee", p.Name)
	assert.Equal(t, models.ProfileKey, p.ID)
}

func TestSnapshotToleratesFailures(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveProfile(ctx, models.Profile{Name: "Sam"})
	require.NoError(t, err)
	_, err = svc.BulkAddSkills(ctx, "Go", "lang", 90)
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, models.CollectionProjects, []byte(`{"title":"Relay"}`))
	require.NoError(t, err)

	store.Fail("list:projects")
	snap := svc.Snapshot(ctx)

	assert.True(t, snap.Loaded)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Sam", snap.Profile.Name)
	assert.Len(t, snap.Skills, 1)
	assert.NotNil(t, snap.Projects)
	assert.Empty(t, snap.Projects)
	assert.Empty(t, snap.Companies)
}

func TestSubmitContactStampsTime(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return fixed })
	ctx := context.Background()

	form := &ContactForm{Name: "Jo", Email: "jo@example.com", Subject: "Hi", Message: "Hello!"}
	saved, err := form.Submit(ctx, svc)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, ContactForm{}, *form)

	list, err := svc.messages.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Jo", list[0].Name)
	assert.True(t, fixed.Equal(list[0].Timestamp))
}

func TestContactFormKeepsFieldsOnFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.Fail("add:messages")

	form := &ContactForm{Name: "Jo", Email: "jo@example.com", Message: "Hello!"}
	_, err := form.Submit(context.Background(), svc)
	require.Error(t, err)
	assert.Equal(t, "Jo", form.Name)
	assert.Equal(t, "Hello!", form.Message)

	store.Heal()
	msgs, err := svc.messages.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestContactMessagesAreNotAdminCollections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := (&ContactForm{Name: "Jo", Email: "jo@example.com", Message: "Hello!"}).Submit(ctx, svc)
	require.NoError(t, err)

	assert.NotContains(t, svc.AdminCollections(), models.CollectionMessages)

	_, err = svc.ListRecords(ctx, models.CollectionMessages)
	assert.ErrorIs(t, err, ErrUnknownSection)

	_, err = svc.CreateRecord(ctx, models.CollectionMessages, []byte(`{"name":"x"}`))
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestContactFormValidation(t *testing.T) {
	svc, _ := newTestService(t)
	form := &ContactForm{Name: "Jo"}
	_, err := form.Submit(context.Background(), svc)
	assert.ErrorIs(t, err, ErrIncompleteMessage)
}

func TestSeedFromResume(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec := resume.Default()

	result, err := svc.SeedFromResume(ctx, rec, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result[models.CollectionProfile])
	assert.Equal(t, len(rec.Experience), result[models.CollectionCompanies])

	again, err := svc.SeedFromResume(ctx, rec, false)
	require.NoError(t, err)
	assert.Empty(t, again)

	snap := svc.Snapshot(ctx)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, rec.Name(), snap.Profile.Name)
	require.NotEmpty(t, snap.Companies)
	assert.Equal(t, "Jan 2024", snap.Companies[0].StartDate)
	assert.Equal(t, "Jan 2025", snap.Companies[0].EndDate)
}

func TestSplitPeriod(t *testing.T) {
	start, end := splitPeriod("Feb 2023 – Present")
	assert.Equal(t, "Feb 2023", start)
	assert.Equal(t, "", end)

	start, end = splitPeriod("2020")
	assert.Equal(t, "2020", start)
	assert.Equal(t, "", end)
}
