package ivrflow

import "github.com/aretw0/ivrflow/pkg/domain"

// fallbackState is where calls are parked when the main flow cannot be entered.
const fallbackState = "main_menu"

const fallbackMenu = "Press 1 for Booking, Press 2 for Train Status, Press 3 for Schedule, " +
	"Press 4 for Cancellation, Press 5 for PNR Status, Press 6 for Seat Availability, " +
	"Press 7 for Fare Enquiry, Press 8 for Trains Between Stations, Press 0 to Repeat Menu, " +
	"Press Star for Main Menu, or Press 9 for Customer Support. " +
	"You can also speak your request anytime. How can I help you today?"

var fallbackOptions = domain.Options{
	{Key: "1", Label: "Book Train Ticket"},
	{Key: "2", Label: "Check Train Status"},
	{Key: "3", Label: "Train Schedule"},
	{Key: "4", Label: "Ticket Cancellation"},
	{Key: "5", Label: "PNR Status Check"},
	{Key: "6", Label: "Seat Availability"},
	{Key: "7", Label: "Fare Enquiry"},
	{Key: "8", Label: "Trains Between Stations"},
	{Key: "0", Label: "Repeat Menu"},
	{Key: "*", Label: "Return to Main Menu"},
	{Key: "#", Label: "Confirm/Submit"},
	{Key: "9", Label: "Talk to Customer Support Agent"},
}
