// ABOUTME: Form schemas for contacts, companies, deals, activities, notes, shares and users
// ABOUTME: Each schema is consumed by CLI flags, TUI forms and backend request validation
package validate

var ContactForm = Schema{
	Name: "contact",
	Fields: []Field{
		{Name: "name", Label: "Name", Placeholder: "Jane Doe", Rules: "required,max=100"},
		{Name: "email", Label: "Email", Placeholder: "jane@acme.com", Rules: "omitempty,email,max=255"},
		{Name: "phone", Label: "Phone", Placeholder: "+1 555 0100", Rules: "omitempty,max=50"},
		{Name: "position", Label: "Position", Placeholder: "Head of Sales", Rules: "omitempty,max=100"},
		{Name: "companyId", Label: "Company", Placeholder: "company id (optional)", Rules: "omitempty,max=64"},
		{Name: "status", Label: "Status", Placeholder: "hot/warm/cold/allGood", Rules: "omitempty,oneof=hot warm cold allGood"},
		{Name: "tags", Label: "Tags", Placeholder: "comma,separated", Rules: "omitempty,max=500"},
		{Name: "notes", Label: "Notes", Rules: "omitempty,max=5000"},
	},
}

var CompanyForm = Schema{
	Name: "company",
	Fields: []Field{
		{Name: "name", Label: "Company name", Placeholder: "Acme Corp", Rules: "required,max=200"},
		{Name: "industry", Label: "Industry", Placeholder: "Software", Rules: "omitempty,max=100"},
		{Name: "website", Label: "Website", Placeholder: "https://acme.com", Rules: "omitempty,urlprefix,max=255"},
		{Name: "phone", Label: "Phone", Rules: "omitempty,max=50"},
		{Name: "address", Label: "Address", Rules: "omitempty,max=500"},
		{Name: "notes", Label: "Notes", Rules: "omitempty,max=5000"},
	},
}

var DealForm = Schema{
	Name: "deal",
	Fields: []Field{
		{Name: "title", Label: "Title", Placeholder: "Enterprise license", Rules: "required,max=200"},
		{Name: "value", Label: "Value", Placeholder: "50000", Rules: "omitempty,floatrange=0:1000000000000"},
		{Name: "currency", Label: "Currency", Placeholder: "USD", Rules: "omitempty,len=3,alpha,uppercase"},
		{Name: "stageId", Label: "Stage", Placeholder: "stage id", Rules: "required"},
		{Name: "contactId", Label: "Contact", Placeholder: "contact id (optional)", Rules: "omitempty,max=64"},
		{Name: "companyId", Label: "Company", Placeholder: "company id (optional)", Rules: "omitempty,max=64"},
		{Name: "probability", Label: "Probability", Placeholder: "0-100", Rules: "omitempty,intrange=0:100"},
		{Name: "expectedCloseDate", Label: "Expected close date", Placeholder: "YYYY-MM-DD", Rules: "omitempty,date"},
		{Name: "notes", Label: "Notes", Rules: "omitempty,max=5000"},
	},
}

var ActivityForm = Schema{
	Name: "activity",
	Fields: []Field{
		{Name: "type", Label: "Type", Placeholder: "call/email/meeting/note/task", Rules: "required,oneof=call email meeting note task"},
		{Name: "subject", Label: "Subject", Placeholder: "Follow-up call", Rules: "required,max=200"},
		{Name: "description", Label: "Description", Rules: "omitempty,max=5000"},
		{Name: "dueDate", Label: "Due date", Placeholder: "YYYY-MM-DD HH:MM", Rules: "omitempty,datetime_or_date"},
		{Name: "contactId", Label: "Contact", Rules: "omitempty,max=64"},
		{Name: "companyId", Label: "Company", Rules: "omitempty,max=64"},
		{Name: "dealId", Label: "Deal", Rules: "omitempty,max=64"},
	},
}

var NoteForm = Schema{
	Name: "note",
	Fields: []Field{
		{Name: "content", Label: "Note", Rules: "required,max=10000"},
	},
}

var ShareForm = Schema{
	Name: "share",
	Fields: []Field{
		{Name: "resourceType", Label: "Resource type", Placeholder: "contact/activity/deal", Rules: "required,oneof=contact activity deal"},
		{Name: "resourceId", Label: "Resource", Rules: "required"},
		{Name: "sharedWithUserId", Label: "User", Placeholder: "user id", Rules: "required"},
		{Name: "permission", Label: "Permission", Placeholder: "view/edit", Rules: "required,oneof=view edit"},
		{Name: "message", Label: "Message", Rules: "omitempty,max=500"},
	},
}

var UserCreateForm = Schema{
	Name: "user",
	Fields: []Field{
		{Name: "name", Label: "Name", Rules: "required,max=100"},
		{Name: "email", Label: "Email", Rules: "required,email,max=255"},
		{Name: "password", Label: "Password", Rules: "required,min=8,max=128", Secret: true},
		{Name: "role", Label: "Role", Placeholder: "user/admin", Rules: "omitempty,oneof=user admin"},
	},
}

var UserUpdateForm = Schema{
	Name: "user",
	Fields: []Field{
		{Name: "name", Label: "Name", Rules: "omitempty,max=100"},
		{Name: "email", Label: "Email", Rules: "omitempty,email,max=255"},
		{Name: "password", Label: "Password", Rules: "omitempty,min=8,max=128", Secret: true},
		{Name: "role", Label: "Role", Rules: "omitempty,oneof=user admin"},
	},
}

var LoginForm = Schema{
	Name: "login",
	Fields: []Field{
		{Name: "email", Label: "Email", Rules: "required,email"},
		{Name: "password", Label: "Password", Rules: "required", Secret: true},
	},
}

var RegisterForm = Schema{
	Name: "register",
	Fields: []Field{
		{Name: "name", Label: "Name", Rules: "required,max=100"},
		{Name: "email", Label: "Email", Rules: "required,email,max=255"},
		{Name: "password", Label: "Password", Rules: "required,min=8,max=128", Secret: true},
	},
}

var PasswordChangeForm = Schema{
	Name: "password",
	Fields: []Field{
		{Name: "currentPassword", Label: "Current password", Rules: "required", Secret: true},
		{Name: "newPassword", Label: "New password", Rules: "required,min=8,max=128", Secret: true},
	},
}
