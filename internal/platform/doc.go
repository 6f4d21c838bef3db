package platform

// Package platform connects the download core to YouTube and the host OS:
// query resolution, stream fetching, and file manager integration.
