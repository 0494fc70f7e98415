// ABOUTME: Create and edit forms built from the shared form schemas
// ABOUTME: Field errors from client or backend validation render under each input
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

// form is the state behind the edit and share views.
type form struct {
	title    string
	schema   validate.Schema
	inputs   []textinput.Model
	focus    int
	errs     validate.Errors
	id       string
	orig     map[string]string
	returnTo ViewMode
}

func newForm(title string, schema validate.Schema, values map[string]string) *form {
	f := &form{title: title, schema: schema}
	for i, field := range schema.Fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.CharLimit = 500
		ti.Width = 50
		if field.Secret {
			ti.EchoMode = textinput.EchoPassword
		}
		ti.SetValue(values[field.Name])
		if i == 0 {
			ti.Focus()
		}
		f.inputs = append(f.inputs, ti)
	}
	return f
}

// values returns the trimmed input of every field.
func (f *form) values() map[string]string {
	out := make(map[string]string, len(f.inputs))
	for i, field := range f.schema.Fields {
		out[field.Name] = strings.TrimSpace(f.inputs[i].Value())
	}
	return out
}

// changed returns the field value when it differs from what the form was
// opened with. New records send everything.
func (f *form) changed(v map[string]string, name string) *string {
	if f.orig != nil && v[name] == f.orig[name] {
		return nil
	}
	return api.String(v[name])
}

func (f *form) fieldName() string {
	return f.schema.Fields[f.focus].Name
}

func (f *form) move(delta int) {
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	for i := range f.inputs {
		if i == f.focus {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func formSchema(e EntityType, editing bool) validate.Schema {
	switch e {
	case EntityContacts:
		return validate.ContactForm
	case EntityCompanies:
		return validate.CompanyForm
	case EntityDeals:
		return validate.DealForm
	case EntityActivities:
		return validate.ActivityForm
	case EntityUsers:
		if editing {
			return validate.UserUpdateForm
		}
		return validate.UserCreateForm
	}
	return validate.Schema{}
}

// startCreate opens an empty form for the current tab.
func (m *Model) startCreate() {
	values := map[string]string{}
	switch m.current() {
	case EntityContacts:
		values["status"] = string(models.DefaultContactStatus)
	case EntityDeals:
		values["currency"] = models.DefaultCurrency
		if len(m.stages) > 0 {
			values["stageId"] = m.stages[0].Name
		}
	case EntityActivities:
		values["type"] = string(models.ActivityTask)
	case EntityUsers:
		values["role"] = string(models.RoleUser)
	}
	m.form = newForm("New "+singular(m.current()), formSchema(m.current(), false), values)
	m.form.returnTo = m.viewMode
	m.err = nil
	m.viewMode = ViewEdit
}

func singular(e EntityType) string {
	switch e {
	case EntityActivities:
		return "Activity"
	case EntityCompanies:
		return "Company"
	}
	return strings.TrimSuffix(e.String(), "s")
}

// startEdit opens a form prefilled with the selected entity.
func (m *Model) startEdit() {
	values, title, ok := m.editValues()
	if !ok {
		return
	}
	m.form = newForm("Edit "+title, formSchema(m.current(), true), values)
	m.form.id = m.selectedID
	m.form.orig = m.form.values()
	m.form.returnTo = m.viewMode
	m.err = nil
	m.viewMode = ViewEdit
}

// editValues finds the selected entity in the detail or list state.
func (m Model) editValues() (map[string]string, string, bool) {
	id := m.selectedID
	switch m.current() {
	case EntityContacts:
		c, ok := m.detail.(*models.Contact)
		if !ok {
			c = findByID(m.contacts, id, func(c models.Contact) string { return c.ID })
		}
		if c == nil {
			return nil, "", false
		}
		return map[string]string{
			"name": c.Name, "email": c.Email, "phone": c.Phone, "position": c.Position,
			"companyId": c.CompanyID, "status": string(c.Status), "tags": strings.Join(c.Tags, ", "), "notes": c.Notes,
		}, c.Name, true
	case EntityCompanies:
		c, ok := m.detail.(*models.Company)
		if !ok {
			c = findByID(m.companies, id, func(c models.Company) string { return c.ID })
		}
		if c == nil {
			return nil, "", false
		}
		return map[string]string{
			"name": c.Name, "industry": c.Industry, "website": c.Website,
			"phone": c.Phone, "address": c.Address, "notes": c.Notes,
		}, c.Name, true
	case EntityDeals:
		d, ok := m.detail.(*models.Deal)
		if !ok {
			d = findByID(m.deals, id, func(d models.Deal) string { return d.ID })
		}
		if d == nil {
			return nil, "", false
		}
		stage := d.StageName
		if stage == "" {
			stage = d.StageID
		}
		return map[string]string{
			"title": d.Title, "value": strconv.FormatFloat(d.Value, 'f', -1, 64), "currency": d.Currency,
			"stageId": stage, "contactId": d.ContactID, "companyId": d.CompanyID,
			"probability": strconv.Itoa(d.Probability), "expectedCloseDate": formatDate(d.ExpectedCloseDate), "notes": d.Notes,
		}, d.Title, true
	case EntityActivities:
		a, ok := m.detail.(*models.Activity)
		if !ok {
			a = findByID(m.activities, id, func(a models.Activity) string { return a.ID })
		}
		if a == nil {
			return nil, "", false
		}
		return map[string]string{
			"type": string(a.Type), "subject": a.Subject, "description": a.Description, "dueDate": formatDateTime(a.DueDate),
			"contactId": a.ContactID, "companyId": a.CompanyID, "dealId": a.DealID,
		}, a.Subject, true
	case EntityUsers:
		u, ok := m.detail.(*models.User)
		if !ok {
			u = findByID(m.users, id, func(u models.User) string { return u.ID })
		}
		if u == nil {
			return nil, "", false
		}
		return map[string]string{"name": u.Name, "email": u.Email, "role": string(u.Role)}, u.Name, true
	}
	return nil, "", false
}

func findByID[T any](items []T, id string, key func(T) string) *T {
	for i := range items {
		if key(items[i]) == id {
			return &items[i]
		}
	}
	return nil
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.viewMode = f.returnTo
		m.form = nil
		m.err = nil
		return m, nil
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	case "ctrl+t":
		if f.fieldName() == "tags" {
			f.inputs[f.focus].SetValue(completeTag(f.inputs[f.focus].Value(), m.knownTags))
			f.inputs[f.focus].CursorEnd()
		}
		return m, nil
	case "enter":
		return m, m.save()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

// tagSuggestions offers known tags for the word being typed.
func tagSuggestions(input string, known []string) []string {
	parts := strings.Split(input, ",")
	prefix := strings.TrimSpace(parts[len(parts)-1])
	current := models.ParseTags(strings.Join(parts[:len(parts)-1], ","))
	return models.SuggestTags(known, current, prefix, 5)
}

// completeTag replaces the word being typed with the first suggestion.
func completeTag(input string, known []string) string {
	suggestions := tagSuggestions(input, known)
	if len(suggestions) == 0 {
		return input
	}
	parts := strings.Split(input, ",")
	parts[len(parts)-1] = " " + suggestions[0]
	return strings.TrimLeft(strings.Join(parts, ","), " ") + ", "
}

// save sends the form to the backend. Validation failures come back as
// field errors and keep the form open.
func (m *Model) save() tea.Cmd {
	f := m.form
	f.errs = nil
	v := f.values()
	client := m.client
	id := f.id

	done := func(label string, detail any) func(*Model) {
		return func(m *Model) {
			m.viewMode = f.returnTo
			m.form = nil
			m.message = label
			if m.viewMode == ViewDetail {
				m.detail = detail
			}
		}
	}

	switch m.current() {
	case EntityContacts:
		status, _ := models.ParseContactStatus(v["status"])
		if v["status"] != "" && status == "" {
			status = models.ContactStatus(v["status"])
		}
		tags := models.ParseTags(v["tags"])
		if id == "" {
			in := api.ContactInput{
				Name: v["name"], Email: v["email"], Phone: v["phone"], Position: v["position"],
				CompanyID: v["companyId"], Status: status, Tags: tags, Notes: v["notes"],
			}
			return m.mutate(func(ctx context.Context) (func(*Model), error) {
				c, err := client.Contacts.Create(ctx, in)
				if err != nil {
					return nil, err
				}
				return done(fmt.Sprintf("Created contact %s", c.Name), c), nil
			})
		}
		u := api.ContactUpdate{
			Name: f.changed(v, "name"), Email: f.changed(v, "email"), Phone: f.changed(v, "phone"),
			Position: f.changed(v, "position"), CompanyID: f.changed(v, "companyId"), Notes: f.changed(v, "notes"),
		}
		if f.changed(v, "tags") != nil {
			u.Tags = &tags
		}
		if status != "" && f.changed(v, "status") != nil {
			u.Status = &status
		}
		return m.mutate(func(ctx context.Context) (func(*Model), error) {
			c, err := client.Contacts.Update(ctx, id, u)
			if err != nil {
				return nil, err
			}
			return done(fmt.Sprintf("Updated contact %s", c.Name), c), nil
		})

	case EntityCompanies:
		if id == "" {
			in := api.CompanyInput{
				Name: v["name"], Industry: v["industry"], Website: v["website"],
				Phone: v["phone"], Address: v["address"], Notes: v["notes"],
			}
			return m.mutate(func(ctx context.Context) (func(*Model), error) {
				c, err := client.Companies.Create(ctx, in)
				if err != nil {
					return nil, err
				}
				return done(fmt.Sprintf("Created company %s", c.Name), c), nil
			})
		}
		u := api.CompanyUpdate{
			Name: f.changed(v, "name"), Industry: f.changed(v, "industry"), Website: f.changed(v, "website"),
			Phone: f.changed(v, "phone"), Address: f.changed(v, "address"), Notes: f.changed(v, "notes"),
		}
		return m.mutate(func(ctx context.Context) (func(*Model), error) {
			c, err := client.Companies.Update(ctx, id, u)
			if err != nil {
				return nil, err
			}
			return done(fmt.Sprintf("Updated company %s", c.Name), c), nil
		})

	case EntityDeals:
		errs := validate.DealForm.Validate(v)
		stage, ok := models.FindStage(m.stages, v["stageId"])
		if v["stageId"] != "" && !ok {
			if errs == nil {
				errs = validate.Errors{}
			}
			errs["stageId"] = "Stage not found"
		}
		if errs != nil {
			f.errs = errs
			return nil
		}
		value, _ := strconv.ParseFloat(v["value"], 64)
		prob, _ := strconv.Atoi(v["probability"])
		if id == "" {
			in := api.DealInput{
				Title: v["title"], Value: value, Currency: v["currency"], StageID: stage.ID,
				ContactID: v["contactId"], CompanyID: v["companyId"], Probability: prob,
				ExpectedCloseDate: v["expectedCloseDate"], Notes: v["notes"],
			}
			return m.mutate(func(ctx context.Context) (func(*Model), error) {
				d, err := client.Deals.Create(ctx, in)
				if err != nil {
					return nil, err
				}
				return done(fmt.Sprintf("Created deal %s", d.Title), d), nil
			})
		}
		u := api.DealUpdate{
			Title: f.changed(v, "title"), Currency: f.changed(v, "currency"),
			ContactID: f.changed(v, "contactId"), CompanyID: f.changed(v, "companyId"),
			ExpectedCloseDate: f.changed(v, "expectedCloseDate"), Notes: f.changed(v, "notes"),
		}
		if f.changed(v, "value") != nil {
			u.Value = &value
		}
		if f.changed(v, "stageId") != nil {
			u.StageID = api.String(stage.ID)
		}
		if f.changed(v, "probability") != nil {
			u.Probability = &prob
		}
		return m.mutate(func(ctx context.Context) (func(*Model), error) {
			d, err := client.Deals.Update(ctx, id, u)
			if err != nil {
				return nil, err
			}
			return done(fmt.Sprintf("Updated deal %s", d.Title), d), nil
		})

	case EntityActivities:
		kind := models.ActivityType(v["type"])
		if id == "" {
			in := api.ActivityInput{
				Type: kind, Subject: v["subject"], Description: v["description"], DueDate: v["dueDate"],
				ContactID: v["contactId"], CompanyID: v["companyId"], DealID: v["dealId"],
			}
			return m.mutate(func(ctx context.Context) (func(*Model), error) {
				a, err := client.Activities.Create(ctx, in)
				if err != nil {
					return nil, err
				}
				return done(fmt.Sprintf("Created activity %s", a.Subject), a), nil
			})
		}
		u := api.ActivityUpdate{
			Subject: f.changed(v, "subject"), Description: f.changed(v, "description"),
			DueDate: f.changed(v, "dueDate"), ContactID: f.changed(v, "contactId"),
			CompanyID: f.changed(v, "companyId"), DealID: f.changed(v, "dealId"),
		}
		if f.changed(v, "type") != nil {
			u.Type = &kind
		}
		return m.mutate(func(ctx context.Context) (func(*Model), error) {
			a, err := client.Activities.Update(ctx, id, u)
			if err != nil {
				return nil, err
			}
			return done(fmt.Sprintf("Updated activity %s", a.Subject), a), nil
		})

	case EntityUsers:
		role := models.Role(v["role"])
		if id == "" {
			in := api.UserInput{Name: v["name"], Email: v["email"], Password: v["password"], Role: role}
			return m.mutate(func(ctx context.Context) (func(*Model), error) {
				u, err := client.Users.Create(ctx, in)
				if err != nil {
					return nil, err
				}
				return done(fmt.Sprintf("Created user %s", u.Email), u), nil
			})
		}
		var u api.UserUpdate
		if v["name"] != "" {
			u.Name = api.String(v["name"])
		}
		if v["email"] != "" {
			u.Email = api.String(v["email"])
		}
		if v["password"] != "" {
			u.Password = api.String(v["password"])
		}
		if role != "" {
			u.Role = &role
		}
		return m.mutate(func(ctx context.Context) (func(*Model), error) {
			user, err := client.Users.Update(ctx, id, u)
			if err != nil {
				return nil, err
			}
			return done(fmt.Sprintf("Updated user %s", user.Email), user), nil
		})
	}
	return nil
}

func (m Model) renderEditView() string {
	var s strings.Builder
	f := m.form

	s.WriteString(titleStyle.Render(f.title))
	s.WriteString("\n\n")
	s.WriteString(m.renderError())
	s.WriteString(m.renderStatus())

	for i, field := range f.schema.Fields {
		label := field.Label
		if field.Required() {
			label += " *"
		}
		s.WriteString(fieldLabelStyle.Render(label+":") + "\n")
		s.WriteString(f.inputs[i].View() + "\n")
		if msg, ok := f.errs[field.Name]; ok {
			s.WriteString(errorStyle.Render("  "+msg) + "\n")
		}
		if field.Name == "tags" && i == f.focus {
			if sug := tagSuggestions(f.inputs[i].Value(), m.knownTags); len(sug) > 0 {
				s.WriteString(helpStyle.Render("  suggestions: "+strings.Join(sug, ", ")+" (ctrl+t)") + "\n")
			}
		}
		if field.Name == "stageId" && i == f.focus && len(m.stages) > 0 {
			names := make([]string, len(m.stages))
			for j, st := range m.stages {
				names[j] = st.Name
			}
			s.WriteString(helpStyle.Render("  stages: "+strings.Join(names, ", ")) + "\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("tab: next field • shift+tab: previous • enter: save • esc: cancel"))
	return s.String()
}
