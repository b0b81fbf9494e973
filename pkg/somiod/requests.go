package somiod

// Request DTOs

// CreateApplicationRequest contains parameters for creating an application.
// ResourceName may be empty, in which case a name is generated.
type CreateApplicationRequest struct {
	ResourceName string
}

// CreateContainerRequest contains parameters for creating a container inside
// an application.
type CreateContainerRequest struct {
	ApplicationName string
	ResourceName    string
}

// CreateContentInstanceRequest contains parameters for creating a content
// instance inside a container. ContentType and Content are required.
type CreateContentInstanceRequest struct {
	ApplicationName string
	ContainerName   string
	ResourceName    string
	ContentType     string
	Content         string
}

// CreateSubscriptionRequest contains parameters for registering a
// subscription on a container. Evt must be 1, 2 or 3 and Endpoint an absolute
// http, https or mqtt URI.
type CreateSubscriptionRequest struct {
	ApplicationName string
	ContainerName   string
	ResourceName    string
	Evt             EventCode
	Endpoint        string
}

// RenameApplicationRequest changes the key of an application while keeping
// its identity and creation time.
type RenameApplicationRequest struct {
	CurrentName string
	NewName     string
}

// RenameContainerRequest changes the key of a container within its
// application.
type RenameContainerRequest struct {
	ApplicationName string
	CurrentName     string
	NewName         string
}
